package domain

type contextKey string

const ContextKeyMsgId contextKey = "msgId"
