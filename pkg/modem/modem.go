package modem

// Modem is the part of a device decoder the experiment programs and the collector rely on.
type Modem interface {
	IsReady() error
	// Reset reboots the modem, the session has to be reopened afterwards
	Reset() error

	Information() (Information, error)
	Status() (Status, error)
	LTEInfo() (LTEInfo, error)

	// GPS
	StartGPSDefault() error
	StopGPS() error
	GPSLocation() (GPSLocation, error)

	Close() error
}

// Information identifies the modem.
type Information struct {
	Manufacturer string
	Model        string
	Revision     string
	MEID         string
	IMEI         string
	IMEISV       string
	FSN          string
}

// CarrierStatus describes one secondary component carrier.
type CarrierStatus struct {
	State   string
	Band    int
	BwMHz   int
	Chan    int
	RxMRSSI int
	RxMRSRP int
	RxDRSSI int
	RxDRSRP int
}

// TxPowerUnknown is reported while the modem does not transmit.
const TxPowerUnknown = -1000

// Status is the decoded general status of the modem.
type Status struct {
	CurrentTime  int
	Temperature  int
	ResetCounter int
	Mode         string
	SystemMode   string
	PSState      string

	LTEBand   int
	LTEBwMHz  int
	LTERxChan int
	LTETxChan int

	// Secondary carriers, index 0 is SCC1
	SCC [4]CarrierStatus

	EMMState    string
	RRCState    string
	IMSRegState string

	PCCRxMRSSI int
	PCCRxMRSRP int
	PCCRxDRSSI int
	PCCRxDRSRP int

	TxPower int
	TAC     int
	RSRQ    float64
	CellID  int
	SINR    float64
}

// PCCRSRP is the mean of both receive paths of the primary carrier.
func (s Status) PCCRSRP() float64 {
	return float64(s.PCCRxMRSRP+s.PCCRxDRSRP) / 2
}

func (s Status) PCCRSSI() float64 {
	return float64(s.PCCRxMRSSI+s.PCCRxDRSSI) / 2
}

// SCCRSRP is the mean of both receive paths of the first secondary carrier.
func (s Status) SCCRSRP() float64 {
	return float64(s.SCC[0].RxMRSRP+s.SCC[0].RxDRSRP) / 2
}

func (s Status) SCCRSSI() float64 {
	return float64(s.SCC[0].RxMRSSI+s.SCC[0].RxDRSSI) / 2
}

type IntraFreqNeighbour struct {
	PCI  int
	RSRQ float64
	RSRP float64
	RSSI float64
	RxLv int
}

type InterFreqNeighbour struct {
	EARFCN        int
	ThresholdLow  int
	ThresholdHigh int
	Priority      int
	PCI           int
	RSRQ          float64
	RSRP          float64
	RSSI          float64
	RxLv          int
}

// LTEInfo describes the serving cell and its neighbours.
type LTEInfo struct {
	EARFCN int
	MCC    int
	MNC    int
	TAC    int
	CellID int
	Band   int
	D      int
	U      int
	SNR    int
	PCI    int
	RSRQ   float64
	RSRP   float64
	RSSI   float64
	RxLv   int

	IntraFreq []IntraFreqNeighbour
	InterFreq []InterFreqNeighbour
}

// GPSLocation is the last position fix. Valid is false while no fix is available.
type GPSLocation struct {
	Valid        bool
	RawLatitude  uint32
	RawLongitude uint32
	Latitude     float64
	Longitude    float64
	Altitude     int
	LocUncAngle  float64
	LocUncA      float64
	LocUncP      float64
	HEPE         float64
	LocUncVe     float64
	Heading      float64
	VelocityH    float64
	VelocityV    float64
}
