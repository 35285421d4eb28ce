package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventBotRegistered    EventType = "BOT_REGISTERED"
	EventBotReconnected   EventType = "BOT_RECONNECTED"
	EventBotHeartbeat     EventType = "BOT_HEARTBEAT"
	EventBotStarted       EventType = "BOT_STARTED"
	EventBotStopped       EventType = "BOT_STOPPED"
	EventBotDeleted       EventType = "BOT_DELETED"
	EventTradeOpened      EventType = "TRADE_OPENED"
	EventTradeClosed      EventType = "TRADE_CLOSED"
	EventLicenseIssued    EventType = "LICENSE_ISSUED"
	EventLicenseValidated EventType = "LICENSE_VALIDATED"
	EventError            EventType = "ERROR"
)

// Event represents a system event. UserID scopes delivery so dashboard
// streams only see their own account's activity.
type Event struct {
	Type      EventType              `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers. Subscribers run in their
// own goroutines so a slow consumer never blocks the publisher.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishBotEvent publishes a bot lifecycle event
func (eb *EventBus) PublishBotEvent(eventType EventType, userID, botID, instanceName string, status string) {
	eb.Publish(Event{
		Type:   eventType,
		UserID: userID,
		Data: map[string]interface{}{
			"bot_id":        botID,
			"instance_name": instanceName,
			"status":        status,
		},
	})
}

// PublishHeartbeat publishes a heartbeat event with account figures
func (eb *EventBus) PublishHeartbeat(userID, botID string, balance, equity *float64) {
	data := map[string]interface{}{
		"bot_id": botID,
	}
	if balance != nil {
		data["balance"] = *balance
	}
	if equity != nil {
		data["equity"] = *equity
	}
	eb.Publish(Event{
		Type:   EventBotHeartbeat,
		UserID: userID,
		Data:   data,
	})
}

// PublishTradeOpened publishes a trade opened event
func (eb *EventBus) PublishTradeOpened(userID, botID, symbol, tradeType string, lotSize, openPrice float64) {
	eb.Publish(Event{
		Type:   EventTradeOpened,
		UserID: userID,
		Data: map[string]interface{}{
			"bot_id":     botID,
			"symbol":     symbol,
			"trade_type": tradeType,
			"lot_size":   lotSize,
			"open_price": openPrice,
		},
	})
}

// PublishTradeClosed publishes a trade closed event
func (eb *EventBus) PublishTradeClosed(userID, botID, symbol string, profit float64) {
	eb.Publish(Event{
		Type:   EventTradeClosed,
		UserID: userID,
		Data: map[string]interface{}{
			"bot_id": botID,
			"symbol": symbol,
			"profit": profit,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
