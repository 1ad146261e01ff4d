package services

import (
	"capsule-im/internal/attachment"
	"capsule-im/internal/imtypes"
	"capsule-im/internal/storage"
)

// AssembleConversation 将左连接产生的行折叠为消息列表。
// 同一条消息的多行（每个附件一行）合并为单条消息，消息顺序保持
// 行的首次出现顺序，附件顺序保持行顺序。
// Images 字段永远不为 nil，无附件时序列化为空数组。
func AssembleConversation(rows []storage.ConversationRow) []*imtypes.ChatMessage {
	messages := make([]*imtypes.ChatMessage, 0, len(rows))
	byID := make(map[uint]*imtypes.ChatMessage, len(rows))

	for _, row := range rows {
		msg, ok := byID[row.MessageID]
		if !ok {
			msg = &imtypes.ChatMessage{
				ID:         row.MessageID,
				SenderID:   row.SenderID,
				ReceiverID: row.ReceiverID,
				Text:       row.Text,
				CreatedAt:  row.CreatedAt,
				Images:     []imtypes.ImageAttachment{},
			}
			byID[row.MessageID] = msg
			messages = append(messages, msg)
		}

		if row.ImageID != nil {
			contentType := attachment.DefaultContentType
			if row.ContentType != nil && *row.ContentType != "" {
				contentType = *row.ContentType
			}
			msg.Images = append(msg.Images, imtypes.ImageAttachment{
				ImageID:     *row.ImageID,
				Image:       attachment.Encode(row.ImageData, contentType),
				ContentType: contentType,
			})
		}
	}

	return messages
}
