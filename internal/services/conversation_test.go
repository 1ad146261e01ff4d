package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capsule-im/internal/storage"
)

func uintPtr(v uint) *uint    { return &v }
func strPtr(s string) *string { return &s }
func at(sec int) time.Time    { return time.Date(2025, 6, 1, 12, 0, sec, 0, time.UTC) }

func TestAssembleConversationEmpty(t *testing.T) {
	messages := AssembleConversation(nil)
	require.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestAssembleConversationGroupsAttachmentRows(t *testing.T) {
	rows := []storage.ConversationRow{
		{MessageID: 1, SenderID: 10, ReceiverID: 20, Text: "看这两张图", CreatedAt: at(0),
			ImageID: uintPtr(100), ImageData: []byte{1}, ContentType: strPtr("image/png")},
		{MessageID: 1, SenderID: 10, ReceiverID: 20, Text: "看这两张图", CreatedAt: at(0),
			ImageID: uintPtr(101), ImageData: []byte{2}, ContentType: strPtr("image/jpeg")},
		{MessageID: 2, SenderID: 20, ReceiverID: 10, Text: "收到", CreatedAt: at(1)},
	}

	messages := AssembleConversation(rows)
	require.Len(t, messages, 2)

	first := messages[0]
	assert.Equal(t, uint(1), first.ID)
	require.Len(t, first.Images, 2)
	assert.Equal(t, uint(100), first.Images[0].ImageID)
	assert.Equal(t, uint(101), first.Images[1].ImageID)
	assert.Equal(t, "image/jpeg", first.Images[1].ContentType)
	assert.Contains(t, first.Images[1].Image, "data:image/jpeg;base64,")

	second := messages[1]
	assert.Equal(t, uint(2), second.ID)
	require.NotNil(t, second.Images)
	assert.Empty(t, second.Images)
}

func TestAssembleConversationPreservesRowOrder(t *testing.T) {
	// 交错的双向消息，行顺序即数据库排序结果
	rows := []storage.ConversationRow{
		{MessageID: 5, SenderID: 10, ReceiverID: 20, Text: "a", CreatedAt: at(0)},
		{MessageID: 6, SenderID: 20, ReceiverID: 10, Text: "b", CreatedAt: at(1)},
		{MessageID: 7, SenderID: 10, ReceiverID: 20, Text: "c", CreatedAt: at(2),
			ImageID: uintPtr(1), ImageData: []byte{9}, ContentType: strPtr("image/png")},
		{MessageID: 8, SenderID: 20, ReceiverID: 10, Text: "d", CreatedAt: at(3)},
	}

	messages := AssembleConversation(rows)
	require.Len(t, messages, 4)
	ids := []uint{messages[0].ID, messages[1].ID, messages[2].ID, messages[3].ID}
	assert.Equal(t, []uint{5, 6, 7, 8}, ids)
}

func TestAssembleConversationNilContentTypeDefaults(t *testing.T) {
	rows := []storage.ConversationRow{
		{MessageID: 1, SenderID: 10, ReceiverID: 20, Text: "", CreatedAt: at(0),
			ImageID: uintPtr(100), ImageData: []byte{1}, ContentType: nil},
	}

	messages := AssembleConversation(rows)
	require.Len(t, messages, 1)
	require.Len(t, messages[0].Images, 1)
	assert.Equal(t, "image/png", messages[0].Images[0].ContentType)
}
