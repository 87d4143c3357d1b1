package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"
)

// captureDefault swaps DefaultLogger for one writing to buf and returns a
// function restoring the original.
func captureDefault(buf *bytes.Buffer, level log.Level) func() {
	original := DefaultLogger
	DefaultLogger = log.NewWithOptions(buf, log.Options{
		Level:           level,
		ReportTimestamp: false,
	})

	return func() {
		DefaultLogger = original
	}
}

func TestSetLevel(t *testing.T) {
	Convey("Given a default logger", t, func() {
		originalLevel := DefaultLogger.GetLevel()

		Convey("When setting the log level to debug", func() {
			SetLevel(log.DebugLevel)

			Convey("Then the logger level should be debug", func() {
				So(DefaultLogger.GetLevel(), ShouldEqual, log.DebugLevel)
			})
		})

		DefaultLogger.SetLevel(originalLevel)
	})
}

func TestParseLevel(t *testing.T) {
	Convey("Given level names", t, func() {
		Convey("When the name is known", func() {
			level, err := ParseLevel("warn")

			Convey("Then the matching level is returned", func() {
				So(err, ShouldBeNil)
				So(level, ShouldEqual, log.WarnLevel)
			})
		})

		Convey("When the name is unknown", func() {
			_, err := ParseLevel("chatty")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLevelHelpers(t *testing.T) {
	Convey("Given a logger with a buffer output", t, func() {
		var buf bytes.Buffer
		restore := captureDefault(&buf, log.DebugLevel)

		Convey("When logging at every level", func() {
			Debug("draining page", "keys", 3)
			Info("deleting bucket")
			Warn("bucket not empty")
			Error("listing failed")

			Convey("Then each message reaches the output", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "draining page")
				So(out, ShouldContainSubstring, "keys=3")
				So(out, ShouldContainSubstring, "deleting bucket")
				So(out, ShouldContainSubstring, "bucket not empty")
				So(out, ShouldContainSubstring, "listing failed")
			})
		})

		restore()
	})
}

func TestLevelFiltering(t *testing.T) {
	Convey("Given a logger at warn level", t, func() {
		var buf bytes.Buffer
		restore := captureDefault(&buf, log.WarnLevel)

		Convey("When logging below the threshold", func() {
			Info("should not appear")

			Convey("Then nothing is written", func() {
				So(buf.String(), ShouldBeEmpty)
			})
		})

		restore()
	})
}

func TestWithComponent(t *testing.T) {
	Convey("Given a logger", t, func() {
		Convey("When creating a logger with a component", func() {
			logger := WithComponent("reaper")

			Convey("Then the component field is attached", func() {
				var buf bytes.Buffer
				logger.SetOutput(&buf)
				logger.SetLevel(log.InfoLevel)

				logger.Info("test message")

				So(buf.String(), ShouldContainSubstring, "component=reaper")
			})
		})
	})
}

func TestWithBucket(t *testing.T) {
	Convey("Given a parent logger", t, func() {
		var buf bytes.Buffer
		parent := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})

		Convey("When a region is known", func() {
			WithBucket(parent, "b1", "eu-west-1").Info("draining")

			Convey("Then bucket and region are attached", func() {
				So(buf.String(), ShouldContainSubstring, "bucket=b1")
				So(buf.String(), ShouldContainSubstring, "region=eu-west-1")
			})
		})

		Convey("When the region is not resolved yet", func() {
			WithBucket(parent, "b2", "").Info("resolving")

			Convey("Then only the bucket is attached", func() {
				So(buf.String(), ShouldContainSubstring, "bucket=b2")
				So(buf.String(), ShouldNotContainSubstring, "region=")
			})
		})
	})
}
