package params

import "os"

type InfluxDBConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

func DefaultInfluxDBConfig() *InfluxDBConfig {
	return &InfluxDBConfig{
		URL:         os.Getenv("INFLUXDB_URL"),
		Token:       os.Getenv("INFLUXDB_TOKEN"),
		Org:         os.Getenv("INFLUXDB_ORG"),
		Bucket:      os.Getenv("INFLUXDB_BUCKET"),
		Measurement: "trajectory",
	}
}

func (c *InfluxDBConfig) Enabled() bool {
	return c != nil && c.URL != "" && c.Bucket != ""
}
