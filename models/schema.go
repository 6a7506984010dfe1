package models

// TimestampKey is filled from the cycle timestamp instead of the offer.
const TimestampKey = "timestamp"

// Field is one output column. Decimals applies only when HasDecimals is set.
type Field struct {
	Key         string
	Decimals    int32
	HasDecimals bool
}

func plain(key string) Field { return Field{Key: key} }

func fixed(key string, decimals int32) Field {
	return Field{Key: key, Decimals: decimals, HasDecimals: true}
}

// Schema is the canonical column order of every output file.
var Schema = []Field{
	plain(TimestampKey),
	plain("id"),
	plain("host_id"),
	plain("machine_id"),
	fixed("dph_total", 4),
	fixed("min_bid", 4),
	plain("num_gpus"),
	plain("gpu_ram"),
	plain("cpu_cores"),
	plain("cpu_ram"),
	fixed("cpu_ghz", 2),
	fixed("disk_space", 1),
	fixed("disk_bw", 1),
	fixed("inet_up", 1),
	fixed("inet_down", 1),
	plain("geolocation"),
	fixed("reliability2", 4),
	plain("pci_gen"),
	fixed("pcie_bw", 1),
}

// Columns returns the schema keys in order.
func Columns() []string {
	cols := make([]string, len(Schema))
	for i, f := range Schema {
		cols[i] = f.Key
	}
	return cols
}
