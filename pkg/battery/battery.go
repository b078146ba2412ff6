// Package battery reports laptop battery state from the AppleSmartBattery
// registry entry.
package battery

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/pkg/ioreg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// PercentUnknown is reported when the capacities are missing.
const PercentUnknown = -1

// registry properties that are noise or not serializable
var ignoreFields = map[string]bool{
	"CellVoltage":       true,
	"IOGeneralInterest": true,
	"LegacyBatteryInfo": true,
	"ManufacturerData":  true,
}

// properties ioreg prints as unsigned two's complement
var signedFields = map[string]bool{
	"Amperage":        true,
	"InstantAmperage": true,
}

// Battery is one AppleSmartBattery entry.
type Battery struct {
	DeviceName            string  `json:"device_name"`
	Manufacturer          string  `json:"manufacturer"`
	SerialNumber          string  `mapstructure:"BatterySerialNumber" json:"serial_number"`
	ManufactureDate       string  `json:"manufacture_date,omitempty"`
	Installed             bool    `mapstructure:"BatteryInstalled" json:"installed"`
	ExternalConnected     bool    `json:"external_connected"`
	ExternalChargeCapable bool    `json:"external_charge_capable"`
	IsCharging            bool    `json:"is_charging"`
	FullyCharged          bool    `json:"fully_charged"`
	CurrentCapacity       int     `json:"current_capacity"`
	MaxCapacity           int     `json:"max_capacity"`
	DesignCapacity        int     `json:"design_capacity"`
	CycleCount            int     `json:"cycle_count"`
	Amperage              int     `json:"amperage"`
	InstantAmperage       int     `json:"instant_amperage"`
	TimeRemaining         int     `json:"time_remaining"`
	AvgTimeToEmpty        int     `json:"avg_time_to_empty"`
	AvgTimeToFull         int     `json:"avg_time_to_full"`
	Temperature           float64 `json:"temperature"` // Celsius
	Voltage               float64 `json:"voltage"`     // Volts
	Percent               int     `mapstructure:"-" json:"percent"`

	Extra map[string]any `mapstructure:",remain" json:"extra,omitempty"`
}

// Status is CHARGING, FULL or DISCHARGING.
func (b *Battery) Status() string {
	switch {
	case b.IsCharging:
		return "CHARGING"
	case b.FullyCharged:
		return "FULL"
	default:
		return "DISCHARGING"
	}
}

func (b *Battery) String() string {
	return fmt.Sprintf("%s %s %d%% %d/%d mAh %d cycles",
		b.DeviceName,
		b.Status(),
		b.Percent,
		b.CurrentCapacity,
		b.MaxCapacity,
		b.CycleCount,
	)
}

// ManufactureDate decodes the packed smart battery date word:
// bits 15-9 year since 1980, bits 8-5 month, bits 4-0 day.
func ManufactureDate(v int64) string {
	year := (v >> 9) + 1980
	month := (v & 0x1FF) >> 5
	day := v & 0x1F
	return fmt.Sprintf("%d-%02d-%02d", year, month, day)
}

// FromEntry converts a registry entry into a Battery.
func FromEntry(e *ioreg.Entry) (*Battery, error) {
	props := make(map[string]any, len(e.Properties))
	for k, v := range e.Properties {
		if ignoreFields[k] {
			continue
		}
		switch {
		case k == "ManufactureDate":
			n, err := cast.ToInt64E(v)
			if err != nil {
				return nil, fmt.Errorf("failed to parse battery manufacture date %q: %w", v, err)
			}
			props[k] = ManufactureDate(n)
		case k == "Temperature":
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, fmt.Errorf("failed to parse battery temperature %q: %w", v, err)
			}
			props[k] = f / 100
		case k == "Voltage":
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, fmt.Errorf("failed to parse battery voltage %q: %w", v, err)
			}
			props[k] = f / 1000
		case signedFields[k]:
			// older ioreg prints these as unsigned two's complement
			if u, err := strconv.ParseUint(v, 10, 64); err == nil {
				props[k] = int64(u)
				continue
			}
			n, err := cast.ToInt64E(v)
			if err != nil {
				return nil, fmt.Errorf("failed to parse battery %s %q: %w", k, v, err)
			}
			props[k] = n
		case v == "Yes" || v == "No":
			props[k] = v == "Yes"
		default:
			props[k] = v
		}
	}

	b := &Battery{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           b,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(props); err != nil {
		return nil, fmt.Errorf("failed to decode battery %s: %w", e.Name, err)
	}

	b.Percent = PercentUnknown
	if e.Has("CurrentCapacity") && e.Has("MaxCapacity") && b.MaxCapacity > 0 {
		b.Percent = int(math.Round(float64(b.CurrentCapacity) / float64(b.MaxCapacity) * 100))
	}
	return b, nil
}

// Load returns every battery in the registry.
func Load(ctx context.Context, r command.Runner) ([]*Battery, error) {
	entries, err := ioreg.Load(ctx, r, "AppleSmartBattery")
	if err != nil {
		return nil, err
	}
	var batteries []*Battery
	for _, e := range entries {
		b, err := FromEntry(e)
		if err != nil {
			return nil, err
		}
		batteries = append(batteries, b)
	}
	return batteries, nil
}
