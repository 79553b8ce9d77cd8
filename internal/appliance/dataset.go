package appliance

import (
	"strings"
	"time"
)

// SourceDataset is the public dataset the mock records imitate.
const SourceDataset = "ecoco2/household-appliances-power-consumption"

// MockNote is attached to every sample payload.
const MockNote = "This is mock data simulating the Kaggle dataset structure"

// UnitWatts is the unit of every consumption figure.
const UnitWatts = "watts"

// Sample is one hourly reading. Keys other than timestamp and
// power_consumption depend on the appliance.
type Sample map[string]any

// Appliance is one device in the dataset.
type Appliance struct {
	Name         string
	AverageWatts float64
	Samples      []Sample
}

// Samples is the payload for a single appliance.
type Samples struct {
	Appliance  string   `json:"appliance"`
	Data       []Sample `json:"data"`
	SampleSize int      `json:"sample_size"`
	Note       string   `json:"note"`
}

// AllSamples is the payload when no known appliance was requested.
type AllSamples struct {
	Appliances []string            `json:"appliances"`
	Data       map[string][]Sample `json:"data"`
	SampleSize int                 `json:"sample_size"`
	Note       string              `json:"note"`
}

// Average is the average draw of a single appliance.
type Average struct {
	Appliance          string  `json:"appliance"`
	AverageConsumption float64 `json:"average_consumption"`
	Unit               string  `json:"unit"`
}

// AllAverages maps every appliance to its average draw.
type AllAverages struct {
	Appliances map[string]float64 `json:"appliances"`
	Unit       string             `json:"unit"`
}

// Dataset serves fixed appliance consumption data. It is read-only after construction.
type Dataset struct {
	appliances []Appliance
	byName     map[string]int
}

// NewMockDataset returns the built-in five-appliance dataset.
func NewMockDataset() *Dataset {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	hourly := func(i int) time.Time { return start.Add(time.Duration(i) * time.Hour) }

	build := func(n int, row func(i int) Sample) []Sample {
		out := make([]Sample, n)
		for i := range out {
			s := row(i)
			s["timestamp"] = hourly(i)
			out[i] = s
		}
		return out
	}

	power := map[string][]float64{
		"refrigerator":    {120, 125, 118, 122, 119},
		"dishwasher":      {1200, 1250, 0, 0, 1300},
		"washing_machine": {500, 1800, 2000, 700, 0},
		"oven":            {0, 2400, 1800, 1900, 0},
		"air_conditioner": {1200, 1250, 0, 1100, 1300},
	}

	appliances := []Appliance{
		{
			Name:         "refrigerator",
			AverageWatts: 120.8,
			Samples: build(5, func(i int) Sample {
				return Sample{
					"power_consumption": power["refrigerator"][i],
					"temperature":       []float64{4.2, 4.0, 4.1, 4.3, 4.2}[i],
					"door_openings":     []int{2, 0, 1, 3, 2}[i],
				}
			}),
		},
		{
			Name:         "dishwasher",
			AverageWatts: 750.0,
			Samples: build(5, func(i int) Sample {
				return Sample{
					"power_consumption": power["dishwasher"][i],
					"cycle_stage":       []string{"wash", "rinse", "off", "off", "dry"}[i],
					"water_usage":       []float64{3.2, 2.5, 0, 0, 1.0}[i],
				}
			}),
		},
		{
			Name:         "washing_machine",
			AverageWatts: 1000.0,
			Samples: build(5, func(i int) Sample {
				return Sample{
					"power_consumption": power["washing_machine"][i],
					"cycle":             []string{"fill", "wash", "spin", "rinse", "off"}[i],
					"load_size":         "medium",
				}
			}),
		},
		{
			Name:         "oven",
			AverageWatts: 1525.0,
			Samples: build(5, func(i int) Sample {
				return Sample{
					"power_consumption": power["oven"][i],
					"temperature":       []float64{0, 350, 350, 350, 0}[i],
					"door_openings":     []int{0, 1, 0, 2, 1}[i],
				}
			}),
		},
		{
			Name:         "air_conditioner",
			AverageWatts: 1170.0,
			Samples: build(5, func(i int) Sample {
				return Sample{
					"power_consumption":   power["air_conditioner"][i],
					"temperature_setting": []int{72, 72, 78, 74, 72}[i],
					"outside_temp":        []int{85, 87, 80, 83, 88}[i],
				}
			}),
		},
	}

	return NewDataset(appliances)
}

// NewDataset indexes appliances by lower-cased name.
func NewDataset(appliances []Appliance) *Dataset {
	byName := make(map[string]int, len(appliances))
	for i, a := range appliances {
		byName[strings.ToLower(a.Name)] = i
	}
	return &Dataset{appliances: appliances, byName: byName}
}

// Names lists the appliances in dataset order.
func (d *Dataset) Names() []string {
	names := make([]string, 0, len(d.appliances))
	for _, a := range d.appliances {
		names = append(names, a.Name)
	}
	return names
}

func (d *Dataset) lookup(name string) (Appliance, bool) {
	i, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Appliance{}, false
	}
	return d.appliances[i], true
}

// Sample returns up to sampleSize readings for one appliance.
// The boolean is false when name is empty or unknown.
func (d *Dataset) Sample(name string, sampleSize int) (Samples, bool) {
	a, ok := d.lookup(name)
	if !ok {
		return Samples{}, false
	}
	return Samples{
		Appliance:  name,
		Data:       head(a.Samples, sampleSize),
		SampleSize: sampleSize,
		Note:       MockNote,
	}, true
}

// SampleAll returns up to sampleSize readings for every appliance.
func (d *Dataset) SampleAll(sampleSize int) AllSamples {
	data := make(map[string][]Sample, len(d.appliances))
	for _, a := range d.appliances {
		data[a.Name] = head(a.Samples, sampleSize)
	}
	return AllSamples{
		Appliances: d.Names(),
		Data:       data,
		SampleSize: sampleSize,
		Note:       MockNote,
	}
}

// Average returns the average consumption of one appliance.
func (d *Dataset) Average(name string) (Average, bool) {
	a, ok := d.lookup(name)
	if !ok {
		return Average{}, false
	}
	return Average{Appliance: name, AverageConsumption: a.AverageWatts, Unit: UnitWatts}, true
}

// Averages returns the average consumption of every appliance.
func (d *Dataset) Averages() AllAverages {
	out := make(map[string]float64, len(d.appliances))
	for _, a := range d.appliances {
		out[a.Name] = a.AverageWatts
	}
	return AllAverages{Appliances: out, Unit: UnitWatts}
}

func head(samples []Sample, n int) []Sample {
	if n < 0 {
		n = 0
	}
	if n > len(samples) {
		n = len(samples)
	}
	return samples[:n]
}
