package venueperf

import "github.com/bytedance/sonic"

// EncodeReport renders a report with map keys sorted, so two reports built
// from the same provider data encode to identical bytes.
func EncodeReport(report Report) ([]byte, error) {
	return sonic.ConfigStd.Marshal(report)
}

func DecodeReport(raw []byte) (Report, error) {
	var report Report
	if err := sonic.ConfigStd.Unmarshal(raw, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}
