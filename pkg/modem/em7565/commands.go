package em7565

import (
	"time"

	"github.com/LeoCommon/cellmodem/pkg/at"
)

type commandID int

const (
	cmdReady commandID = iota
	cmdReset
	cmdSetProtected
	cmdGetProtected
	cmdStatus
	cmdInformation
	cmdLTEInfo
	cmdGPSLocation
	cmdGPSEnd
	cmdGPSTrack
	cmdSetAntenna
	cmdGetAntenna
	cmdSetAPN
	cmdSetDataConnection
	cmdGetDataConnection
	cmdSetRAT
	cmdGetRAT
	cmdSetBandProfile
	cmdGetBandProfile
	cmdListBandProfiles
	cmdNetworkSearch
	cmdSelectNetwork
	cmdCurrentOperator
	cmdSetGPSAutostart
	cmdGetGPSAutostart
	cmdGPSStatus
	cmdCount
)

// Commands is the EM7565 command catalog. Parameters are appended to the template as is.
var Commands = [cmdCount]at.Command{
	cmdReady:             {ID: "ready", Template: "AT", Timeout: time.Second},
	cmdReset:             {ID: "reset", Template: "AT!RESET", Timeout: 5 * time.Second},
	cmdSetProtected:      {ID: "set_protected_commands", Template: "AT!ENTERCND=", Timeout: time.Second},
	cmdGetProtected:      {ID: "get_protected_commands", Template: "AT!ENTERCND?", Timeout: time.Second},
	cmdStatus:            {ID: "status", Template: "AT!GSTATUS?", Timeout: 2 * time.Second},
	cmdInformation:       {ID: "information", Template: "ATI", Timeout: 2 * time.Second},
	cmdLTEInfo:           {ID: "lteinfo", Template: "AT!LTEINFO?", Timeout: 3 * time.Second},
	cmdGPSLocation:       {ID: "gps_location", Template: "AT!GPSLOC?", Timeout: 2 * time.Second},
	cmdGPSEnd:            {ID: "gps_end", Template: "AT!GPSEND=0", Timeout: 2 * time.Second},
	cmdGPSTrack:          {ID: "gps_track", Template: "AT!GPSTRACK=", Timeout: 5 * time.Second},
	cmdSetAntenna:        {ID: "set_antenna_power", Template: "AT+WANT=", Timeout: 2 * time.Second},
	cmdGetAntenna:        {ID: "get_antenna_power", Template: "AT+WANT?", Timeout: 2 * time.Second},
	cmdSetAPN:            {ID: "set_apn", Template: "AT+CGDCONT=", Timeout: 5 * time.Second},
	cmdSetDataConnection: {ID: "set_data_connection", Template: "AT!SCACT=", Timeout: 30 * time.Second},
	cmdGetDataConnection: {ID: "get_data_connection", Template: "AT!SCACT?", Timeout: 2 * time.Second},
	cmdSetRAT:            {ID: "set_radio_access_type", Template: "AT!SELRAT=", Timeout: 5 * time.Second},
	cmdGetRAT:            {ID: "get_radio_access_type", Template: "AT!SELRAT?", Timeout: 2 * time.Second},
	cmdSetBandProfile:    {ID: "set_band_profile", Template: "AT!BAND=", Timeout: 5 * time.Second},
	cmdGetBandProfile:    {ID: "get_band_profile", Template: "AT!BAND?", Timeout: 2 * time.Second},
	cmdListBandProfiles:  {ID: "list_band_profiles", Template: "AT!BAND=?", Timeout: 2 * time.Second},
	cmdNetworkSearch:     {ID: "network_search", Template: "AT+COPS=?", Timeout: 180 * time.Second},
	cmdSelectNetwork:     {ID: "select_network", Template: "AT+COPS=", Timeout: 60 * time.Second},
	cmdCurrentOperator:   {ID: "current_operator", Template: "AT+COPS?", Timeout: 5 * time.Second},
	cmdSetGPSAutostart:   {ID: "set_gps_autostart", Template: "AT!GPSAUTOSTART=", Timeout: 2 * time.Second},
	cmdGetGPSAutostart:   {ID: "get_gps_autostart", Template: "AT!GPSAUTOSTART?", Timeout: 2 * time.Second},
	cmdGPSStatus:         {ID: "gps_status", Template: "AT!GPSSTATUS?", Timeout: 2 * time.Second},
}
