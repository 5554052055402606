package dispatch

import "time"

type Config struct {
	DBFlushTime    time.Duration `envconfig:"FITMATCH_DISPATCH_DB_FLUSH_TIME" default:"5s"`
	DBFlushSize    int           `envconfig:"FITMATCH_DISPATCH_DB_FLUSH_SIZE" default:"64"`
	RebuildDBTime  time.Duration `envconfig:"FITMATCH_DISPATCH_REBUILD_DB_TIME" default:"60s"`
	MaxItemsStored int           `envconfig:"FITMATCH_DISPATCH_MAX_ITEMS_STORED"`
	MaxStorageTime time.Duration `envconfig:"FITMATCH_DISPATCH_MAX_STORAGE_TIME"`
}
