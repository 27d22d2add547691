package session

import (
	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/debuglog"
)

// logListener writes every core event to the debug log.
type logListener struct{}

func (logListener) OnEvent(ev catalog.Event) {
	fields := map[string]interface{}{
		"event":  ev.Kind.String(),
		"state":  ev.State.String(),
		"mode":   ev.Mode.String(),
		"offset": ev.Offset,
	}

	switch ev.Kind {
	case catalog.EventPageLoaded:
		fields["appended"] = len(ev.Entries)
		fields["visible"] = ev.Visible
		debuglog.WithFields(fields).Debugf("page loaded")
	case catalog.EventExhausted:
		debuglog.WithFields(fields).Infof("catalog exhausted")
	case catalog.EventLoadFailed:
		debuglog.WithFields(fields).Warnf("page load failed: %v", ev.Err)
	case catalog.EventViewChanged:
		fields["query"] = ev.Query
		fields["entries"] = len(ev.Entries)
		debuglog.WithFields(fields).Debugf("view changed")
	case catalog.EventDetailReady:
		debuglog.Debugf("detail ready: %s", ev.Identity)
	case catalog.EventDetailFailed:
		debuglog.Warnf("detail %s failed: %v", ev.Identity, ev.Err)
	case catalog.EventIndexReady:
		debuglog.Infof("search index ready with %d entries", ev.Offset)
	case catalog.EventIndexUnavailable:
		debuglog.Errorf("search unavailable: %v", ev.Err)
	}
}
