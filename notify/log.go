package notify

import "log"

// LogSink writes messages to the process log. It is the default sink
// when no Telegram credentials are configured.
type LogSink struct{}

func (LogSink) SendText(text string) error {
	log.Println(text)
	return nil
}
