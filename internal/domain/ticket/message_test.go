package ticket

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_MessageVariants(t *testing.T) {
	tk := newTicket()
	require.NoError(t, tk.AppendMessage(requester, "hi", "", 0, now))
	ref := "bucket/" + AttachmentPrefix(tk.ID) + "a.pdf"
	require.NoError(t, tk.AppendMessage(performer, "see file", ref, 0, now))
	require.NoError(t, tk.ProposePrice(performer, 80, now))

	snap, err := tk.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Messages, 4)

	switch m := snap.Messages[0].(type) {
	case SystemNotice:
		assert.Equal(t, "open", m.Details["action"])
	default:
		t.Fatalf("message 1 is %T", m)
	}
	text, ok := snap.Messages[1].(TextMessage)
	require.True(t, ok)
	assert.Equal(t, requester, text.SenderID)

	att, ok := snap.Messages[2].(AttachmentMessage)
	require.True(t, ok)
	assert.Equal(t, ref, att.AttachmentRef)
	assert.Equal(t, "see file", att.Content)

	require.NotNil(t, snap.ProposedPrice)
	assert.Equal(t, int64(80), snap.ProposedPrice.Amount)
	assert.Equal(t, performer, snap.ProposedPrice.ProposedBy)
}

func TestSnapshot_JSONKeepsVariantTags(t *testing.T) {
	tk := newTicket()
	require.NoError(t, tk.AppendMessage(requester, "hi", "", 0, now))
	require.NoError(t, tk.AppendMessage(performer, "", "bucket/"+AttachmentPrefix(tk.ID)+"a.pdf", 0, now))

	snap, err := tk.Snapshot()
	require.NoError(t, err)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var raw struct {
		Messages []map[string]any `json:"messages"`
		Status   string           `json:"status"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "OPEN", raw.Status)
	assert.Equal(t, "system", raw.Messages[0]["kind"])
	assert.Equal(t, "text", raw.Messages[1]["kind"])
	assert.Equal(t, "attachment", raw.Messages[2]["kind"])
	assert.NotContains(t, raw.Messages[0], "sender_id")

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Messages, 3)
	assert.IsType(t, SystemNotice{}, decoded.Messages[0])
	assert.IsType(t, TextMessage{}, decoded.Messages[1])
	assert.IsType(t, AttachmentMessage{}, decoded.Messages[2])
	assert.Equal(t, 3, decoded.Messages[2].Sequence())
}

func TestDecodeMessage_Rejects(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"kind":"text","seq":1,"content":"x"}`))
	assert.Error(t, err)
	_, err = DecodeMessage([]byte(`{"kind":"poll","seq":1}`))
	assert.Error(t, err)
	_, err = DecodeMessage([]byte(`not json`))
	assert.Error(t, err)

	type stackTracer interface{ StackTrace() errors.StackTrace }
	var st stackTracer
	assert.True(t, errors.As(err, &st), "decode errors carry a stack")
}

func TestMessageRecord_UnknownKind(t *testing.T) {
	_, err := MessageRecord{Kind: "poll"}.Message()
	assert.Error(t, err)
}
