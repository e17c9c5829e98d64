package choreography

import (
	"time"

	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
)

func genEventID(eff effects.Effects) (ids.EventId, error) {
	return ids.GenerateID32(eff.Random)
}

func genSessionID(eff effects.Effects) (ids.SessionId, error) {
	return ids.GenerateID32(eff.Random)
}

func unixMilliToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
