package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type Producer struct {
	sync  sarama.SyncProducer
	async sarama.AsyncProducer
	log   *zap.Logger
}

func NewProducer(brokers []string, log *zap.Logger) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Retry.Backoff = time.Second
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Version = sarama.V2_5_0_0

	sp, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	ap, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		_ = sp.Close()
		return nil, err
	}

	p := &Producer{sync: sp, async: ap, log: log}
	go func() {
		for err := range ap.Errors() {
			p.log.Error("async produce failed", zap.Error(err))
		}
	}()
	return p, nil
}

func message(topic, key string, data []byte) *sarama.ProducerMessage {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(data),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	return msg
}

// SendSync blocks until the broker acknowledges the write.
func (p *Producer) SendSync(topic, key string, data []byte) error {
	_, _, err := p.sync.SendMessage(message(topic, key, data))
	return err
}

// SendAsync queues the write; failures surface on the error drain.
func (p *Producer) SendAsync(topic, key string, data []byte) {
	p.async.Input() <- message(topic, key, data)
}

func (p *Producer) Close() error {
	p.async.AsyncClose()
	return p.sync.Close()
}
