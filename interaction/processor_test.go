package interaction

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/utils"
	"github.com/stretchr/testify/require"
)

var errReader = errors.New("queue unavailable")

type fakeMessage struct {
	body string
	err  error
}

func (m *fakeMessage) Read() (string, error) {
	return m.body, m.err
}

type fakeReader struct {
	messages []utils.MessageQueueMessage
	deleted  []utils.MessageQueueMessage
	err      error
}

func (r *fakeReader) ReceiveMessages(maxNumberOfMessages int64) ([]utils.MessageQueueMessage, error) {
	if r.err != nil {
		return nil, r.err
	}
	if int64(len(r.messages)) > maxNumberOfMessages {
		return r.messages[:maxNumberOfMessages], nil
	}
	return r.messages, nil
}

func (r *fakeReader) DeleteMessage(msg utils.MessageQueueMessage) error {
	r.deleted = append(r.deleted, msg)
	return nil
}

func TestReadAndProcessMessages(t *testing.T) {
	recorder, db := newTestRecorder(t)

	author := utils.TestCreateUser(t, db, "author")
	user := utils.TestCreateUser(t, db, "user")
	item := utils.TestCreateContentItem(t, db, author.Id, model.ContentTypeVideo, model.PrivacyPublic, time.Now())

	reader := &fakeReader{messages: []utils.MessageQueueMessage{
		&fakeMessage{body: `{"kind":"view","content_item_id":"` + item.Id + `","user_id":"` + user.Id + `","watch_percentage":96,"source":"feed"}`},
		&fakeMessage{body: `{"kind":"like","content_item_id":"` + item.Id + `","user_id":"` + user.Id + `"}`},
		&fakeMessage{body: `{"kind":"share","content_item_id":"` + item.Id + `","user_id":"` + user.Id + `"}`},
		&fakeMessage{body: `not json`},
		&fakeMessage{body: `{"kind":"teleport","content_item_id":"` + item.Id + `"}`},
	}}
	processor := NewIngesterMessageProcessor(reader, recorder)

	require.Equal(t, 3, processor.ReadAndProcessMessages(10))
	// Bad messages are still deleted, the queue must drain.
	require.Len(t, reader.deleted, 5)

	got := reloadItem(t, db, item.Id)
	require.Equal(t, int64(1), got.ViewsCount)
	require.Equal(t, int64(1), got.LikesCount)
	require.Equal(t, int64(1), got.SharesCount)
}

func TestReadAndProcessMessagesHonorsBatchSize(t *testing.T) {
	recorder, db := newTestRecorder(t)

	author := utils.TestCreateUser(t, db, "author")
	item := utils.TestCreateContentItem(t, db, author.Id, model.ContentTypeText, model.PrivacyPublic, time.Now())

	reader := &fakeReader{messages: []utils.MessageQueueMessage{
		&fakeMessage{body: `{"kind":"comment","content_item_id":"` + item.Id + `","user_id":"u1"}`},
		&fakeMessage{body: `{"kind":"comment","content_item_id":"` + item.Id + `","user_id":"u1"}`},
	}}
	processor := NewIngesterMessageProcessor(reader, recorder)

	require.Equal(t, 1, processor.ReadAndProcessMessages(1))
	require.Equal(t, int64(1), reloadItem(t, db, item.Id).CommentsCount)
}

func TestReadAndProcessMessagesReaderError(t *testing.T) {
	recorder, _ := newTestRecorder(t)

	reader := &fakeReader{err: errReader}
	processor := NewIngesterMessageProcessor(reader, recorder)
	require.Zero(t, processor.ReadAndProcessMessages(10))
}
