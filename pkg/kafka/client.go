// Package kafka 提供了与 Kafka 消息队列交互的功能：投递与消费文档增强任务。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/config"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"github.com/nggaadaotak/kintari-be/pkg/tasks"
	"github.com/segmentio/kafka-go"
)

// TaskProcessor 处理一条增强任务，使 Kafka 消费者与具体流水线解耦。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.EnrichmentTask) error
}

func brokerList(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Producer 将增强任务写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokerList(cfg.Brokers)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// Dispatch 发送一个增强任务，以文档 ID 作为消息 key。
func (p *Producer) Dispatch(ctx context.Context, task tasks.EnrichmentTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", task.DocumentID)),
		Value: taskBytes,
	})
}

// Close 关闭底层 writer，刷新缓冲中的消息。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// messageReader 是 Consumer 使用的 kafka.Reader 方法子集。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer 消费增强任务。失败次数记录在 Redis 中，达到上限后提交 offset 放弃该任务。
type Consumer struct {
	reader      messageReader
	processor   TaskProcessor
	tracker     AttemptTracker
	maxAttempts int64
	backoff     time.Duration
}

// NewConsumer 创建一个 Kafka 消费者。
func NewConsumer(cfg config.KafkaConfig, processor TaskProcessor, tracker AttemptTracker) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(r, processor, tracker)
}

func newConsumer(r messageReader, processor TaskProcessor, tracker AttemptTracker) *Consumer {
	return &Consumer{
		reader:      r,
		processor:   processor,
		tracker:     tracker,
		maxAttempts: 3,
		backoff:     2 * time.Second,
	}
}

// Run 循环拉取消息直到 ctx 取消。
func (c *Consumer) Run(ctx context.Context) {
	log.Info("Kafka 消费者已启动")
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}
		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		if c.handle(ctx, m) {
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}
}

// handle 处理一条消息，返回是否应提交 offset。
// 处理失败时在同一条消息上重试，直到成功或失败次数达到上限。
// Redis 计数不可用时按本地计数继续重试，不会跳过该消息。
func (c *Consumer) handle(ctx context.Context, m kafka.Message) bool {
	var task tasks.EnrichmentTask
	if err := json.Unmarshal(m.Value, &task); err != nil {
		// 消息格式错误，直接提交，避免阻塞队列
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		return true
	}
	key := attemptsKey(task.DocumentID)
	var local int64

	for {
		err := c.processor.Process(ctx, task)
		if err == nil {
			log.Infof("增强任务处理成功: DocumentID=%d", task.DocumentID)
			if err := c.tracker.Reset(ctx, key); err != nil {
				log.Warnf("清理失败计数失败: %v", err)
			}
			return true
		}
		log.Errorf("处理增强任务失败: DocumentID=%d, Error: %v", task.DocumentID, err)

		local++
		attempts, incErr := c.tracker.Incr(ctx, key)
		if incErr != nil {
			log.Warnf("记录失败次数失败，改用本地计数: %v", incErr)
		}
		if attempts < local {
			attempts = local
		}
		if attempts >= c.maxAttempts {
			log.Errorf("增强任务多次失败(>=%d)，提交 offset 终止重试: DocumentID=%d", c.maxAttempts, task.DocumentID)
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff):
		}
	}
}

func attemptsKey(documentID uint) string {
	return fmt.Sprintf("kafka:attempts:doc:%d", documentID)
}
