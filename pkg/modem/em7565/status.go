package em7565

import (
	"fmt"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/LeoCommon/cellmodem/pkg/tokenfind"
	"go.uber.org/zap"
)

const statusStringLen = 64

func statusInt(name, pattern string, set func(*modem.Status, int)) tokenfind.Field[modem.Status] {
	return tokenfind.IntField(name, pattern, 10, set)
}

// statusWords captures a run of single space separated words after label
func statusWords(name, label string, set func(*modem.Status, string)) tokenfind.Field[modem.Status] {
	return tokenfind.StringField(name, label+`([A-Za-z]+(?: [A-Za-z]+)*)\s+`, statusStringLen, set)
}

func statusFloat(name, pattern string, set func(*modem.Status, float64)) tokenfind.Field[modem.Status] {
	return tokenfind.FloatField(name, pattern, set)
}

// rsrpAfter matches the RSRP value printed right after the RSSI of the same receive path
func rsrpAfter(path string) string {
	return path + ` RSSI:\s+-*\d+\s+` + path + ` RSRP:\s+(-*\d+)\s+`
}

func carrierFields(n int) []tokenfind.Field[modem.Status] {
	i := n - 1
	ssc := fmt.Sprintf("LTE SSC%d ", n)
	scc := fmt.Sprintf("SCC%d ", n)

	return []tokenfind.Field[modem.Status]{
		statusWords(ssc+"state", ssc+`state:\s*`, func(s *modem.Status, v string) { s.SCC[i].State = v }),
		statusInt(ssc+"band", ssc+`band:\s*[A-Za-z](\d+)\s+`, func(s *modem.Status, v int) { s.SCC[i].Band = v }),
		statusInt(ssc+"bw", ssc+`bw\s*:\s*(\d+)\s+MHz`, func(s *modem.Status, v int) { s.SCC[i].BwMHz = v }),
		statusInt(ssc+"chan", ssc+`chan:\s*(\d+)\s+`, func(s *modem.Status, v int) { s.SCC[i].Chan = v }),
		statusInt(scc+"rxm rssi", scc+`RxM RSSI:\s+(-*\d+)\s+`, func(s *modem.Status, v int) { s.SCC[i].RxMRSSI = v }),
		statusInt(scc+"rxm rsrp", rsrpAfter(scc+"RxM"), func(s *modem.Status, v int) { s.SCC[i].RxMRSRP = v }),
		statusInt(scc+"rxd rssi", scc+`RxD RSSI:\s+(-*\d+)\s+`, func(s *modem.Status, v int) { s.SCC[i].RxDRSSI = v }),
		statusInt(scc+"rxd rsrp", rsrpAfter(scc+"RxD"), func(s *modem.Status, v int) { s.SCC[i].RxDRSRP = v }),
	}
}

var statusFields = func() []tokenfind.Field[modem.Status] {
	fields := []tokenfind.Field[modem.Status]{
		statusInt("current time", `Current Time:\s+(\d+)\s+`, func(s *modem.Status, v int) { s.CurrentTime = v }),
		statusInt("temperature", `Temperature:\s+(\d+)\s+`, func(s *modem.Status, v int) { s.Temperature = v }),
		statusInt("reset counter", `Reset Counter:\s+(\d+)\s+`, func(s *modem.Status, v int) { s.ResetCounter = v }),
		statusWords("mode", `Mode:\s+`, func(s *modem.Status, v string) { s.Mode = v }),
		statusWords("system mode", `System mode:\s+`, func(s *modem.Status, v string) { s.SystemMode = v }),
		statusWords("ps state", `PS state:\s+`, func(s *modem.Status, v string) { s.PSState = v }),

		statusInt("lte band", `LTE band:\s+[A-Za-z](\d+)\s+`, func(s *modem.Status, v int) { s.LTEBand = v }),
		statusInt("lte bw", `LTE bw:\s+(\d+)\s+MHz`, func(s *modem.Status, v int) { s.LTEBwMHz = v }),
		statusInt("lte rx chan", `LTE Rx chan:\s+(\d+)\s+`, func(s *modem.Status, v int) { s.LTERxChan = v }),
		statusInt("lte tx chan", `LTE Tx chan:\s+(\d+)\s+`, func(s *modem.Status, v int) { s.LTETxChan = v }),

		statusWords("emm state", `EMM state:\s+`, func(s *modem.Status, v string) { s.EMMState = v }),
		statusWords("rrc state", `RRC state:\s+`, func(s *modem.Status, v string) { s.RRCState = v }),
		statusWords("ims reg state", `IMS reg state:\s+`, func(s *modem.Status, v string) { s.IMSRegState = v }),

		statusInt("pcc rxm rssi", `PCC RxM RSSI:\s+(-*\d+)\s+`, func(s *modem.Status, v int) { s.PCCRxMRSSI = v }),
		statusInt("pcc rxm rsrp", rsrpAfter("PCC RxM"), func(s *modem.Status, v int) { s.PCCRxMRSRP = v }),
		statusInt("pcc rxd rssi", `PCC RxD RSSI:\s+(-*\d+)\s+`, func(s *modem.Status, v int) { s.PCCRxDRSSI = v }),
		statusInt("pcc rxd rsrp", rsrpAfter("PCC RxD"), func(s *modem.Status, v int) { s.PCCRxDRSRP = v }),

		statusInt("tx power", `Tx Power:\s+(-*\d+)\s+`, func(s *modem.Status, v int) { s.TxPower = v }),
		statusInt("tac", `TAC:\s+[0-9A-Fa-f]+ \((\d+)\)\s+`, func(s *modem.Status, v int) { s.TAC = v }),
		statusInt("cell id", `Cell ID:\s+[0-9A-Fa-f]+ \((\d+)\)\s+`, func(s *modem.Status, v int) { s.CellID = v }),
		statusFloat("rsrq", `RSRQ \(dB\):\s+(-*\d+\.?\d*)\s+`, func(s *modem.Status, v float64) { s.RSRQ = v }),
		statusFloat("sinr", `SINR \(dB\):\s+(-*\d+\.?\d*)\s+`, func(s *modem.Status, v float64) { s.SINR = v }),
	}

	for n := 1; n <= len(modem.Status{}.SCC); n++ {
		fields = append(fields, carrierFields(n)...)
	}
	return fields
}()

// StatusFieldCount is the number of fields Status tries to decode.
var StatusFieldCount = len(statusFields)

// Status decodes the general status. Missing fields keep their defaults.
func (m *Modem) Status() (modem.Status, error) {
	status, _, err := m.StatusDecoded()
	return status, err
}

// StatusDecoded works like Status and also returns the number of decoded fields.
// A response in which no field could be decoded yields modem.ErrIncomplete.
func (m *Modem) StatusDecoded() (modem.Status, int, error) {
	status := modem.Status{TxPower: modem.TxPowerUnknown}

	text, err := m.exec(cmdStatus, "")
	if err != nil {
		return status, 0, err
	}

	n := tokenfind.Batch(m.x, text, &status, statusFields)
	log.Debug("status decoded", zap.Int("fields", n), zap.Int("of", len(statusFields)))

	if n == 0 {
		return status, 0, fmt.Errorf("status: %w", modem.ErrIncomplete)
	}

	return status, n, nil
}
