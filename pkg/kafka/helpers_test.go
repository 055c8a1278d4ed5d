package kafka

import "ebooking/pkg/logger"

func testLogger() *logger.Logger {
	return logger.Discard()
}
