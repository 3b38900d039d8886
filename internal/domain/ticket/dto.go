package ticket

type ProposePriceDTO struct {
	Amount int64 `json:"amount" binding:"required"`
}

type CloseAndRateDTO struct {
	Rating int `json:"rating" binding:"required"`
}

type CreateMessageDTO struct {
	Content       string `json:"content"`
	AttachmentRef string `json:"attachment_ref"`
}

type AttachmentDTO struct {
	AttachmentRef string `json:"attachment_ref"`
	Size          int64  `json:"size"`
	ContentType   string `json:"content_type"`
}
