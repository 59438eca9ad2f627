package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/yourusername/intelliq-api/internal/config"
)

// PubSubProvider определяет интерфейс для провайдеров публикации/подписки
type PubSubProvider interface {
	// Publish публикует сообщение в указанный канал
	Publish(channel string, message []byte) error

	// Subscribe подписывается на указанный канал и возвращает канал для сообщений
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)

	// Close закрывает все соединения и освобождает ресурсы
	Close() error
}

// NoOpPubSub реализует PubSubProvider для одиночного режима работы
type NoOpPubSub struct{}

// Publish реализует метод PubSubProvider.Publish для NoOpPubSub
func (p *NoOpPubSub) Publish(channel string, message []byte) error {
	return nil
}

// Subscribe реализует метод PubSubProvider.Subscribe для NoOpPubSub
func (p *NoOpPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	msgCh := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(msgCh)
	}()
	return msgCh, nil
}

// Close реализует метод PubSubProvider.Close для NoOpPubSub
func (p *NoOpPubSub) Close() error {
	return nil
}

// RedisPubSub реализует PubSubProvider через Redis Pub/Sub
type RedisPubSub struct {
	client redis.UniversalClient
	mu     sync.Mutex
	subs   []*redis.PubSub
}

// NewRedisPubSub создает новый провайдер на основе клиента Redis
func NewRedisPubSub(client redis.UniversalClient) (*RedisPubSub, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for RedisPubSub")
	}
	return &RedisPubSub{client: client}, nil
}

// Publish публикует сообщение в канал Redis
func (p *RedisPubSub) Publish(channel string, message []byte) error {
	return p.client.Publish(context.Background(), channel, message).Err()
}

// Subscribe подписывается на канал Redis и транслирует сообщения в Go-канал
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := p.client.Subscribe(ctx, channel)

	// Дожидаемся подтверждения подписки
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	msgCh := make(chan []byte, 64)
	go func() {
		defer close(msgCh)
		redisCh := sub.Channel()
		for {
			select {
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case msgCh <- []byte(msg.Payload):
				default:
					log.Printf("[RedisPubSub] Буфер канала %s переполнен, сообщение отброшено", channel)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgCh, nil
}

// Close закрывает все активные подписки
func (p *RedisPubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sub := range p.subs {
		sub.Close()
	}
	p.subs = nil
	return nil
}

// RoomMessage - сообщение комнаты, передаваемое между инстансами хаба
type RoomMessage struct {
	// InstanceID содержит ID отправителя для избежания дублирования
	InstanceID string `json:"instance_id"`

	RoomID  uint            `json:"room_id"`
	Payload json.RawMessage `json:"payload"`

	Timestamp time.Time `json:"timestamp"`
}

// ClusterRelay ретранслирует сообщения комнат между инстансами через Pub/Sub.
// Каждый инстанс публикует исходящие события и доставляет чужие события
// только локальным подписчикам, чтобы не зациклить рассылку.
type ClusterRelay struct {
	instanceID string
	channel    string
	provider   PubSubProvider
	hub        *Hub

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClusterRelay создает новый relay для хаба
func NewClusterRelay(hub *Hub, cfg config.ClusterConfig, provider PubSubProvider) *ClusterRelay {
	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = uuid.New().String()
	}
	channelPrefix := cfg.ChannelPrefix
	if channelPrefix == "" {
		channelPrefix = "intelliq:ws"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ClusterRelay{
		instanceID: instanceID,
		channel:    channelPrefix + ":rooms",
		provider:   provider,
		hub:        hub,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start подписывается на канал кластера и запускает доставку входящих сообщений
func (r *ClusterRelay) Start() error {
	msgCh, err := r.provider.Subscribe(r.ctx, r.channel)
	if err != nil {
		return fmt.Errorf("cluster relay subscribe failed: %w", err)
	}

	go func() {
		for raw := range msgCh {
			var msg RoomMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("[ClusterRelay] Не удалось разобрать сообщение кластера: %v", err)
				continue
			}
			// Свои сообщения уже доставлены локально
			if msg.InstanceID == r.instanceID {
				continue
			}
			r.hub.broadcastToRoomLocal(msg.RoomID, msg.Payload)
		}
	}()

	log.Printf("[ClusterRelay] Запущен, инстанс %s, канал %s", r.instanceID, r.channel)
	return nil
}

// PublishRoomMessage публикует событие комнаты другим инстансам
func (r *ClusterRelay) PublishRoomMessage(roomID uint, payload []byte) error {
	msg := RoomMessage{
		InstanceID: r.instanceID,
		RoomID:     roomID,
		Payload:    payload,
		Timestamp:  time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.provider.Publish(r.channel, data)
}

// Stop останавливает relay
func (r *ClusterRelay) Stop() {
	r.cancel()
	r.provider.Close()
}
