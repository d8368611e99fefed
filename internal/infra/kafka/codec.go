package kafka

import (
	"encoding/json"

	"github.com/IBM/sarama"
)

// PublishJSON marshals v and fires it at the topic without waiting
// for the broker; the producer's error drain reports failures.
func PublishJSON(p *Producer, topic, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.SendAsync(topic, key, b)
	return nil
}

// DecodeJSON unmarshals a consumed message's value into v.
func DecodeJSON(msg *sarama.ConsumerMessage, v any) error {
	return json.Unmarshal(msg.Value, v)
}
