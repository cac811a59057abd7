package websocket

import "errors"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
	ErrWriteTimeout     = errors.New("write timeout")
	ErrMalformedEvent   = errors.New("malformed event frame")
	ErrNilConnection    = errors.New("nil connection")
)
