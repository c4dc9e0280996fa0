package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

type envelope struct {
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// display renders envelopes one line per telemetry message and keeps
// per-type counters, summarized every 100 messages.
type display struct {
	w      io.Writer
	total  int
	counts map[string]int
}

func newDisplay(w io.Writer) *display {
	return &display{w: w, counts: make(map[string]int)}
}

var systemStatusNames = map[int]string{
	0: "UNINIT", 1: "BOOT", 2: "CALIBRATING", 3: "STANDBY", 4: "ACTIVE",
	5: "CRITICAL", 6: "EMERGENCY", 7: "POWEROFF", 8: "FLIGHT_TERMINATION",
}

var gpsFixNames = map[int]string{
	0: "No Fix", 1: "No Fix", 2: "2D", 3: "3D", 4: "DGPS",
	5: "RTK Float", 6: "RTK Fixed",
}

func (d *display) Handle(raw []byte) {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		log.Errorf("invalid json: %v raw=%.100s", err, string(raw))
		return
	}
	d.total++
	d.counts[e.Type]++

	switch e.Type {
	case "DRONE_STATE":
		d.droneState(e.Data)
	case "HEARTBEAT":
		status := systemStatusNames[num(e.Data, "system_status")]
		if status == "" {
			status = "UNKNOWN"
		}
		fmt.Fprintf(d.w, "HEARTBEAT status=%s\n", status)
	case "GLOBAL_POSITION_INT":
		fmt.Fprintf(d.w, "POSITION lat=%.6f lon=%.6f alt=%.1fm rel=%.1fm hdg=%.1f\n",
			fnum(e.Data, "lat")/1e7, fnum(e.Data, "lon")/1e7,
			fnum(e.Data, "alt")/1000, fnum(e.Data, "relative_alt")/1000,
			fnum(e.Data, "hdg")/100)
	case "ATTITUDE":
		fmt.Fprintf(d.w, "ATTITUDE roll=%.3f pitch=%.3f yaw=%.3f rad\n",
			fnum(e.Data, "roll"), fnum(e.Data, "pitch"), fnum(e.Data, "yaw"))
	case "GPS_RAW_INT":
		fix, ok := gpsFixNames[num(e.Data, "fix_type")]
		if !ok {
			fix = fmt.Sprintf("Type %d", num(e.Data, "fix_type"))
		}
		fmt.Fprintf(d.w, "GPS fix=%s sats=%d lat=%.6f lon=%.6f alt=%.1fm\n",
			fix, num(e.Data, "satellites_visible"),
			fnum(e.Data, "lat")/1e7, fnum(e.Data, "lon")/1e7, fnum(e.Data, "alt")/1000)
	case "BATTERY_STATUS":
		d.battery(e.Data)
	case "PONG":
		fmt.Fprintf(d.w, "PONG %s\n", e.Timestamp)
	default:
		fmt.Fprintf(d.w, "[%s] %s\n", e.Timestamp, e.Type)
	}

	if d.total%100 == 0 {
		d.summary()
	}
}

func (d *display) droneState(data map[string]interface{}) {
	fmt.Fprintf(d.w, "---- DRONE STATE ----\n")
	if pos, ok := data["position"].(map[string]interface{}); ok {
		fmt.Fprintf(d.w, "position  lat=%.6f lon=%.6f alt=%.1fm rel=%.1fm hdg=%.1f\n",
			fnum(pos, "lat"), fnum(pos, "lon"), fnum(pos, "alt"),
			fnum(pos, "relative_alt"), fnum(pos, "heading"))
	}
	if att, ok := data["attitude"].(map[string]interface{}); ok {
		fmt.Fprintf(d.w, "attitude  roll=%.3f pitch=%.3f yaw=%.3f rad\n",
			fnum(att, "roll"), fnum(att, "pitch"), fnum(att, "yaw"))
	}
	if gps, ok := data["gps"].(map[string]interface{}); ok {
		fmt.Fprintf(d.w, "gps       fix_type=%d sats=%d\n",
			num(gps, "fix_type"), num(gps, "satellites_visible"))
	}
	if bat, ok := data["battery"].(map[string]interface{}); ok {
		fmt.Fprintf(d.w, "battery   voltage=%.1fV", fnum(bat, "voltage"))
		if cur, ok := bat["current"].(float64); ok {
			fmt.Fprintf(d.w, " current=%.1fA", cur)
		}
		fmt.Fprintf(d.w, " remaining=%d%%\n", num(bat, "remaining"))
	}
	if hb, ok := data["heartbeat"].(map[string]interface{}); ok {
		status := systemStatusNames[num(hb, "system_status")]
		fmt.Fprintf(d.w, "heartbeat status=%s\n", status)
	}
	fmt.Fprintf(d.w, "---------------------\n")
}

func (d *display) battery(data map[string]interface{}) {
	voltage := 0.0
	if vs, ok := data["voltages"].([]interface{}); ok && len(vs) > 0 {
		if v0, ok := vs[0].(float64); ok {
			voltage = v0 / 1000
		}
	}
	fmt.Fprintf(d.w, "BATTERY voltage=%.2fV", voltage)
	if cur := num(data, "current_battery"); cur != -1 {
		fmt.Fprintf(d.w, " current=%.2fA", float64(cur)/100)
	}
	if rem := num(data, "battery_remaining"); rem != -1 {
		fmt.Fprintf(d.w, " remaining=%d%%", rem)
	}
	fmt.Fprintf(d.w, "\n")
}

func (d *display) summary() {
	type tc struct {
		t string
		n int
	}
	sorted := make([]tc, 0, len(d.counts))
	for t, n := range d.counts {
		sorted = append(sorted, tc{t, n})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].n > sorted[j].n })

	fmt.Fprintf(d.w, "-- received %d messages --\n", d.total)
	for _, x := range sorted {
		fmt.Fprintf(d.w, "   %s: %d\n", x.t, x.n)
	}
}

func fnum(m map[string]interface{}, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func num(m map[string]interface{}, key string) int {
	return int(fnum(m, key))
}
