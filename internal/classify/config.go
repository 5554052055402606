package classify

import "time"

type Config struct {
	RequestTimeout  time.Duration `envconfig:"FITMATCH_CLASSIFY_REQUEST_TIMEOUT" default:"30s"`
	MaxDataItemsLen int           `envconfig:"FITMATCH_CLASSIFY_MAX_DATA_ITEMS_LEN" default:"1000"`
}
