package event

import (
	"strings"
	"unicode"
)

const queuePrefix = "queue."

// RoutingKey derives the topic-exchange routing key from an event name:
// a trailing "Event" suffix is stripped, a dot is inserted before every
// internal upper-case transition, and the result is lower-cased.
//
//	ImageUploadedEvent      -> image.uploaded
//	ShareRequestCreatedEvent -> share.request.created
//
// Publisher and subscriber both go through this function; the two sides
// silently stop matching if the derivation ever diverges.
func RoutingKey(name string) string {
	name = strings.TrimSuffix(name, "Event")

	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('.')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}

	return b.String()
}

// QueueName derives the durable queue name bound to a routing key.
func QueueName(routingKey string) string {
	return queuePrefix + routingKey
}
