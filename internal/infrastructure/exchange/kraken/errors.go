package kraken

import "errors"

var (
	ErrInvalidTickerData = errors.New("invalid ticker data")
	ErrInvalidPair       = errors.New("invalid trading pair")
	ErrConnectionFailed  = errors.New("connection to kraken failed")
	ErrWebSocketClosed   = errors.New("websocket connection closed")
)
