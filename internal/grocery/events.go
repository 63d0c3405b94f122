package grocery

import (
	"github.com/dukerupert/grocer/internal/model"
	"github.com/dukerupert/grocer/internal/websocket"
)

// Publisher delivers change notifications to one owner's connections.
type Publisher interface {
	Publish(owner string, msg websocket.Message)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, websocket.Message) {}

// pendingEvents holds messages raised inside a transaction until it
// commits.
type pendingEvents struct {
	events []pendingEvent
}

type pendingEvent struct {
	owner string
	msg   websocket.Message
}

func (p *pendingEvents) Publish(owner string, msg websocket.Message) {
	p.events = append(p.events, pendingEvent{owner: owner, msg: msg})
}

func (p *pendingEvents) flush(to Publisher) {
	for _, e := range p.events {
		to.Publish(e.owner, e.msg)
	}
	p.events = nil
}

func listMessage(action string, l *model.GroceryList) websocket.Message {
	return websocket.NewMessage("grocery_list", action, l.ID, nil)
}

func itemMessage(action string, item *model.GroceryItem) websocket.Message {
	return websocket.NewMessage("grocery_item", action, item.ID, map[string]any{
		"grocery_list_id": item.GroceryListID,
	})
}
