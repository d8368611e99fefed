package kafka

import (
	"github.com/IBM/sarama"
)

// SendDLQ forwards a message its handler could not process to the
// topic's dead-letter twin, keeping the original key so partitioning
// stays stable.
func SendDLQ(p *Producer, msg *sarama.ConsumerMessage) error {
	var key string
	if msg.Key != nil {
		key = string(msg.Key)
	}
	return p.SendSync(msg.Topic+".dlq", key, msg.Value)
}
