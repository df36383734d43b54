package delivery

// EasyQueue builds a BaseMessage from raw inputs and hands it to the
// subscription matcher, so callers that never touch the store directly
// — $SYS publishers, will messages, bridge-local publishes — can still
// publish (database.c's db__messages_easy_queue).
// sourceID is the publishing client's id, or "" for a broker-local
// publish (origin is set accordingly).
func (c *Core) EasyQueue(matcher Matcher, sourceID, topic string, qos byte, payload []byte, retain bool, expirySeconds uint32, props Properties) (Code, error) {
	origin := OriginBroker
	if sourceID != "" {
		origin = OriginClient
	}

	base := &BaseMessage{
		Topic:      topic,
		Payload:    append([]byte(nil), payload...),
		Qos:        qos,
		Retain:     retain,
		Origin:     origin,
		SourceID:   sourceID,
		Properties: props,
	}
	if expirySeconds > 0 {
		base.ExpiryTime = c.nowSeconds() + int64(expirySeconds)
	}

	if err := c.MsgStoreAdd(base); err != nil {
		return CodeNoMem, err
	}

	return matcher.QueueMessages(sourceID, topic, qos, retain, base)
}
