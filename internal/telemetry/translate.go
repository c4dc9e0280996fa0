package telemetry

import (
	"github.com/juju/errors"

	"github.com/mavgate/mavgate/internal/mavlink"
)

// Cache categories, keyed off the MAVLink message types below.
const (
	CategoryHeartbeat = "heartbeat"
	CategoryGps       = "gps"
	CategoryPosition  = "position"
	CategoryAttitude  = "attitude"
	CategoryBattery   = "battery"
)

// batteryCurrentUnknown is the MAVLink sentinel for "current not measured".
const batteryCurrentUnknown = -1

// Translator converts one decoded record into an outbound Envelope and,
// for the five recognized message types, normalizes selected fields
// into engineering units and stores them in the cache. All other types
// pass through with their raw field mapping and no cache write.
//
// Normalization table (fixed, mirrors the MAVLink field encodings):
// lat/lon degE7 /1e7, altitudes mm /1000, velocities cm/s /100,
// heading cdeg /100, cell voltage mV /1000, current cA /100.
type Translator struct {
	cache *StateCache
}

func NewTranslator(cache *StateCache) *Translator {
	return &Translator{cache: cache}
}

// Translate returns the envelope for d, updating the state cache as a
// side effect. A nil envelope with error means: log, drop, continue.
func (t *Translator) Translate(d *mavlink.Decoded) (*Envelope, error) {
	if d == nil || d.Type == "" {
		return nil, errors.NotValidf("decoded message without type")
	}
	if err := t.updateState(d); err != nil {
		return nil, errors.Annotatef(err, "translate type=%s", d.Type)
	}
	return NewEnvelope(d.Type, d.Fields), nil
}

func (t *Translator) updateState(d *mavlink.Decoded) error {
	switch d.Type {
	case "HEARTBEAT":
		fields, err := copyRaw(d.Fields, "type", "autopilot", "base_mode", "custom_mode", "system_status", "mavlink_version")
		if err != nil {
			return err
		}
		t.cache.Update(CategoryHeartbeat, fields)

	case "GPS_RAW_INT":
		lat, err := numField(d.Fields, "lat")
		lon, err2 := numField(d.Fields, "lon")
		alt, err3 := numField(d.Fields, "alt")
		raw, err4 := copyRaw(d.Fields, "fix_type", "satellites_visible")
		if err = firstErr(err, err2, err3, err4); err != nil {
			return err
		}
		raw["lat"] = lat / 1e7
		raw["lon"] = lon / 1e7
		raw["alt"] = alt / 1000.0
		t.cache.Update(CategoryGps, raw)

	case "GLOBAL_POSITION_INT":
		nums, err := numFields(d.Fields, "lat", "lon", "alt", "relative_alt", "vx", "vy", "vz", "hdg")
		if err != nil {
			return err
		}
		t.cache.Update(CategoryPosition, map[string]interface{}{
			"lat":          nums["lat"] / 1e7,
			"lon":          nums["lon"] / 1e7,
			"alt":          nums["alt"] / 1000.0,
			"relative_alt": nums["relative_alt"] / 1000.0,
			"vx":           nums["vx"] / 100.0,
			"vy":           nums["vy"] / 100.0,
			"vz":           nums["vz"] / 100.0,
			"heading":      nums["hdg"] / 100.0,
		})

	case "ATTITUDE":
		fields, err := copyRaw(d.Fields, "roll", "pitch", "yaw", "rollspeed", "pitchspeed", "yawspeed")
		if err != nil {
			return err
		}
		t.cache.Update(CategoryAttitude, fields)

	case "BATTERY_STATUS":
		current, err := numField(d.Fields, "current_battery")
		remaining, err2 := rawField(d.Fields, "battery_remaining")
		if err = firstErr(err, err2); err != nil {
			return err
		}
		voltage := 0.0
		if vs, ok := d.Fields["voltages"].([]interface{}); ok && len(vs) > 0 {
			if v0, ok := numVal(vs[0]); ok {
				voltage = v0 / 1000.0
			}
		}
		fields := map[string]interface{}{
			"voltage":   voltage,
			"current":   nil, // explicit "no data" on the unknown sentinel
			"remaining": remaining,
		}
		if current != batteryCurrentUnknown {
			fields["current"] = current / 100.0
		}
		t.cache.Update(CategoryBattery, fields)
	}
	return nil
}

func rawField(fields map[string]interface{}, name string) (interface{}, error) {
	v, ok := fields[name]
	if !ok {
		return nil, errors.NotFoundf("field %s", name)
	}
	return v, nil
}

func copyRaw(fields map[string]interface{}, names ...string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(names))
	for _, name := range names {
		v, err := rawField(fields, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func numField(fields map[string]interface{}, name string) (float64, error) {
	v, err := rawField(fields, name)
	if err != nil {
		return 0, err
	}
	n, ok := numVal(v)
	if !ok {
		return 0, errors.NotValidf("field %s=%v", name, v)
	}
	return n, nil
}

func numFields(fields map[string]interface{}, names ...string) (map[string]float64, error) {
	out := make(map[string]float64, len(names))
	for _, name := range names {
		n, err := numField(fields, name)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

func numVal(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
