// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package eventbus

import "strings"

// MatchTopic reports whether a subscription pattern matches a published
// topic.
//
// A pattern ending in '*' matches every topic that shares the preceding
// prefix; the comparison is a literal prefix check, '.' has no special
// meaning. The bare "*" is the zero-length prefix and therefore matches
// everything. Any other pattern must equal the topic exactly, so the empty
// pattern matches only the empty topic.
func MatchTopic(pattern, topic string) bool {
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		return strings.HasPrefix(topic, pattern[:n-1])
	}
	return pattern == topic
}
