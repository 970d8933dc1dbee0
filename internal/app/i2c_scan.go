package app

import (
	"fmt"
	"os"

	"github.com/relabs-tech/bmp180_thermometer/internal/config"
	"github.com/relabs-tech/bmp180_thermometer/internal/report"
)

// RunScan lists every device on the configured bus and exits.
func RunScan() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("scan: config not initialized")
	}

	tr, _, closeBus, err := openTransport(cfg.I2C.Bus)
	if err != nil {
		return err
	}
	defer closeBus()

	rep := report.NewReporter()
	rep.AddSink(report.NewWriter(os.Stdout, "\n"))

	th := &Thermometer{Transport: tr, Report: rep}
	if found := th.Scan(); len(found) == 0 {
		return fmt.Errorf("scan: no devices found on %s", tr)
	}
	return nil
}
