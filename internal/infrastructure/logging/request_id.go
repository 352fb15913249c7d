package logging

import (
	"github.com/google/uuid"
)

// RequestIDGenerator genera ids con formato {prefix}_{uuid}
type RequestIDGenerator struct {
	prefix string
}

func NewRequestIDGenerator(prefix string) *RequestIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &RequestIDGenerator{prefix: prefix}
}

func (g *RequestIDGenerator) Generate() string {
	return g.prefix + "_" + uuid.NewString()
}

var defaultGenerator = NewRequestIDGenerator("req")

func GenerateRequestID() string {
	return defaultGenerator.Generate()
}
