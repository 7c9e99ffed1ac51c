package config

import "fmt"

// QueueKeyStruct names the Redis lists consumed by background workers.
type QueueKeyStruct struct {
	PersistSignalsQueue string
}

// QueueKey is the shared queue name registry.
var QueueKey = &QueueKeyStruct{
	PersistSignalsQueue: "persist_signals_queue",
}

// ChannelKeyStruct names Redis pub/sub channels.
type ChannelKeyStruct struct{}

// ChannelKey is the shared channel name registry.
var ChannelKey = &ChannelKeyStruct{}

// ExamMonitorChannel returns the pub/sub channel carrying live anti-cheat
// signals for one exam's monitor view.
func (k *ChannelKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}
