// infrastructure/notification/log_notifier.go
package notification

import (
	"log"
	"strings"

	"github.com/vitovidale/video-publisher-service/domain"
)

// LogNotifier writes user notifications to a logger. It stands in for an
// e-mail or push integration.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier uses the standard logger when logger is nil.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendNotification(userID int, originalFilename string, status domain.ProcessingStatus, message string) {
	n.logger.Printf("NOTIFICATION for User ID %d - Video '%s' Status: %s. Message: %s",
		userID, originalFilename, strings.ToUpper(string(status)), message)
}
