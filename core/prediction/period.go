package prediction

// Period classifies an hour of day for the rush multiplier.
type Period int

const (
	OffPeak Period = iota
	MorningRush
	EveningRush
	Midday
)

func (p Period) String() string {
	switch p {
	case MorningRush:
		return "morning_rush"
	case EveningRush:
		return "evening_rush"
	case Midday:
		return "midday"
	default:
		return "off_peak"
	}
}

// PeriodOf returns the period of hour. Windows are inclusive and checked in
// order so an hour falls into exactly one period.
func PeriodOf(hour int) Period {
	switch {
	case hour >= 7 && hour <= 9:
		return MorningRush
	case hour >= 17 && hour <= 19:
		return EveningRush
	case hour >= 12 && hour <= 14:
		return Midday
	default:
		return OffPeak
	}
}

// Multiplier returns the factor applied for the period under cfg.
func (p Period) Multiplier(cfg Config) float64 {
	switch p {
	case MorningRush:
		return cfg.MorningRush
	case EveningRush:
		return cfg.EveningRush
	case Midday:
		return cfg.Midday
	default:
		return 1
	}
}
