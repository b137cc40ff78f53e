package interaction

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/utils"
	. "github.com/ripplehq/ripple/utils/log"
)

/*

IngesterMessageProcessor drains the client interaction queue and feeds the
recorder. Clients batch interaction events through the mobile gateway onto
SQS, this processor is the single consumer.

Reader focus on how to get message from queue, processor focus on how to
process the message.

*/
type IngesterMessageProcessor struct {
	Reader   utils.MessageQueueReader
	Recorder *Recorder
}

// NewIngesterMessageProcessor creates the processor with reader dependency
// injection so tests can feed canned messages.
func NewIngesterMessageProcessor(reader utils.MessageQueueReader, recorder *Recorder) *IngesterMessageProcessor {
	return &IngesterMessageProcessor{Reader: reader, Recorder: recorder}
}

// InteractionMessage is the wire shape of one queued interaction event.
type InteractionMessage struct {
	Kind          string  `json:"kind"`
	ContentItemID string  `json:"content_item_id"`
	UserID        *string `json:"user_id"`
	SessionID     *string `json:"session_id"`

	// view only
	WatchTimeSeconds int     `json:"watch_time_seconds"`
	WatchPercentage  float64 `json:"watch_percentage"`
	Source           string  `json:"source"`
	DeviceType       *string `json:"device_type"`

	// save/unsave only
	CollectionID *string `json:"collection_id"`
}

// ReadAndProcessMessages pulls up to batchSize messages and processes them in
// order, returning the success count. This function doesn't return errors,
// only logs them.
func (p *IngesterMessageProcessor) ReadAndProcessMessages(batchSize int64) int {
	msgs, err := p.Reader.ReceiveMessages(batchSize)

	successCount := 0
	if err != nil {
		Log.Error("fail to read interaction messages from queue: ", err)
		return successCount
	}

	for _, msg := range msgs {
		if err := p.ProcessOneMessage(msg); err != nil {
			Log.Errorf("fail to process one interaction message, err: %s", err)
		} else {
			successCount++
		}
		if err := p.Reader.DeleteMessage(msg); err != nil {
			Log.Error("fail to delete message from queue: ", err)
		}
	}
	return successCount
}

// ProcessOneMessage decodes and dispatches a single event.
func (p *IngesterMessageProcessor) ProcessOneMessage(msg utils.MessageQueueMessage) error {
	body, err := msg.Read()
	if err != nil {
		return errors.Wrap(err, "fail to read message body")
	}

	var event InteractionMessage
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return errors.Wrap(err, "fail to decode interaction message")
	}
	return p.dispatch(&event)
}

func (p *IngesterMessageProcessor) dispatch(event *InteractionMessage) error {
	switch event.Kind {
	case "view":
		_, err := p.Recorder.RecordView(ViewInput{
			ContentItemID:    event.ContentItemID,
			ViewerID:         event.UserID,
			SessionID:        event.SessionID,
			WatchTimeSeconds: event.WatchTimeSeconds,
			WatchPercentage:  event.WatchPercentage,
			Source:           model.ViewSource(event.Source),
			DeviceType:       event.DeviceType,
		})
		return err
	case "like":
		return p.Recorder.RecordLike(event.ContentItemID, derefUser(event))
	case "unlike":
		return p.Recorder.RecordUnlike(event.ContentItemID, derefUser(event))
	case "comment":
		return p.Recorder.RecordComment(event.ContentItemID, derefUser(event))
	case "uncomment":
		return p.Recorder.RecordUncomment(event.ContentItemID, derefUser(event))
	case "reply":
		return p.Recorder.RecordReply(event.ContentItemID, derefUser(event))
	case "share":
		return p.Recorder.RecordShare(event.ContentItemID, derefUser(event))
	case "save":
		return p.Recorder.RecordSave(event.ContentItemID, derefUser(event), event.CollectionID)
	case "unsave":
		return p.Recorder.RecordUnsave(event.ContentItemID, derefUser(event), event.CollectionID)
	}
	return errors.Errorf("unknown interaction kind %q", event.Kind)
}

func derefUser(event *InteractionMessage) string {
	if event.UserID == nil {
		return ""
	}
	return *event.UserID
}
