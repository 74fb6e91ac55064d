package bno055

import "fmt"

// Page is one of the two register address spaces of the chip, selected by writing PAGE_ID.
type Page uint8

const (
	// Page0 holds the sensor data, status and system configuration registers.
	Page0 Page = 0
	// Page1 holds the sensor configuration, interrupt configuration and unique id registers.
	Page1 Page = 1

	// pageAny marks a register mapped into both pages (only PAGE_ID).
	pageAny Page = 0xFE
	// pageUnknown is the cached page before the first page write, after a reset, or after a
	// page write that may not have reached the chip.
	pageUnknown Page = 0xFF
)

func (p Page) String() string {
	switch p {
	case Page0:
		return "page 0"
	case Page1:
		return "page 1"
	case pageAny:
		return "any page"
	default:
		return "unknown page"
	}
}

// Register names a single register of the chip. Use it with Device.ReadRegister and
// Device.WriteRegister; the device selects the right page on its own.
type Register uint8

// The register map, in datasheet order.
const (
	// page 0
	RegChipID Register = iota
	RegAccID
	RegMagID
	RegGyrID
	RegSwRevIDLSB
	RegSwRevIDMSB
	RegBlRevID
	RegPageID

	RegAccDataXLSB
	RegAccDataXMSB
	RegAccDataYLSB
	RegAccDataYMSB
	RegAccDataZLSB
	RegAccDataZMSB
	RegMagDataXLSB
	RegMagDataXMSB
	RegMagDataYLSB
	RegMagDataYMSB
	RegMagDataZLSB
	RegMagDataZMSB
	RegGyrDataXLSB
	RegGyrDataXMSB
	RegGyrDataYLSB
	RegGyrDataYMSB
	RegGyrDataZLSB
	RegGyrDataZMSB
	RegEulHeadingLSB
	RegEulHeadingMSB
	RegEulRollLSB
	RegEulRollMSB
	RegEulPitchLSB
	RegEulPitchMSB
	RegQuaDataWLSB
	RegQuaDataWMSB
	RegQuaDataXLSB
	RegQuaDataXMSB
	RegQuaDataYLSB
	RegQuaDataYMSB
	RegQuaDataZLSB
	RegQuaDataZMSB
	RegLiaDataXLSB
	RegLiaDataXMSB
	RegLiaDataYLSB
	RegLiaDataYMSB
	RegLiaDataZLSB
	RegLiaDataZMSB
	RegGrvDataXLSB
	RegGrvDataXMSB
	RegGrvDataYLSB
	RegGrvDataYMSB
	RegGrvDataZLSB
	RegGrvDataZMSB
	RegTemp

	RegCalibStat
	RegStResult
	RegIntSta
	RegSysClkStatus
	RegSysStatus
	RegSysErr
	RegUnitSel
	RegOprMode
	RegPwrMode
	RegSysTrigger
	RegTempSource
	RegAxisMapConfig
	RegAxisMapSign

	RegSicMatrixLSB0
	RegSicMatrixMSB0
	RegSicMatrixLSB1
	RegSicMatrixMSB1
	RegSicMatrixLSB2
	RegSicMatrixMSB2
	RegSicMatrixLSB3
	RegSicMatrixMSB3
	RegSicMatrixLSB4
	RegSicMatrixMSB4
	RegSicMatrixLSB5
	RegSicMatrixMSB5
	RegSicMatrixLSB6
	RegSicMatrixMSB6
	RegSicMatrixLSB7
	RegSicMatrixMSB7
	RegSicMatrixLSB8
	RegSicMatrixMSB8

	RegAccOffsetXLSB
	RegAccOffsetXMSB
	RegAccOffsetYLSB
	RegAccOffsetYMSB
	RegAccOffsetZLSB
	RegAccOffsetZMSB
	RegMagOffsetXLSB
	RegMagOffsetXMSB
	RegMagOffsetYLSB
	RegMagOffsetYMSB
	RegMagOffsetZLSB
	RegMagOffsetZMSB
	RegGyrOffsetXLSB
	RegGyrOffsetXMSB
	RegGyrOffsetYLSB
	RegGyrOffsetYMSB
	RegGyrOffsetZLSB
	RegGyrOffsetZMSB
	RegAccRadiusLSB
	RegAccRadiusMSB
	RegMagRadiusLSB
	RegMagRadiusMSB

	// page 1
	RegAccConfig
	RegMagConfig
	RegGyrConfig0
	RegGyrConfig1
	RegAccSleepConfig
	RegGyrSleepConfig
	RegIntMsk
	RegIntEn
	RegAccAmThres
	RegAccIntSettings
	RegAccHgDuration
	RegAccHgThres
	RegAccNmThres
	RegAccNmSet
	RegGyrIntSetting
	RegGyrHrXSet
	RegGyrDurX
	RegGyrHrYSet
	RegGyrDurY
	RegGyrHrZSet
	RegGyrDurZ
	RegGyrAmThres
	RegGyrAmSet
	RegUniqueID

	numRegisters
)

type registerInfo struct {
	name   string
	page   Page
	offset byte
	// anyMode registers may be written outside CONFIGMODE. Every other writable register is
	// silently ignored by the chip unless it is in CONFIGMODE.
	anyMode bool
}

var registerMap = [numRegisters]registerInfo{
	RegChipID:     {"CHIP_ID", Page0, 0x00, false},
	RegAccID:      {"ACC_ID", Page0, 0x01, false},
	RegMagID:      {"MAG_ID", Page0, 0x02, false},
	RegGyrID:      {"GYR_ID", Page0, 0x03, false},
	RegSwRevIDLSB: {"SW_REV_ID_LSB", Page0, 0x04, false},
	RegSwRevIDMSB: {"SW_REV_ID_MSB", Page0, 0x05, false},
	RegBlRevID:    {"BL_REV_ID", Page0, 0x06, false},
	RegPageID:     {"PAGE_ID", pageAny, 0x07, true},

	RegAccDataXLSB:   {"ACC_DATA_X_LSB", Page0, 0x08, false},
	RegAccDataXMSB:   {"ACC_DATA_X_MSB", Page0, 0x09, false},
	RegAccDataYLSB:   {"ACC_DATA_Y_LSB", Page0, 0x0A, false},
	RegAccDataYMSB:   {"ACC_DATA_Y_MSB", Page0, 0x0B, false},
	RegAccDataZLSB:   {"ACC_DATA_Z_LSB", Page0, 0x0C, false},
	RegAccDataZMSB:   {"ACC_DATA_Z_MSB", Page0, 0x0D, false},
	RegMagDataXLSB:   {"MAG_DATA_X_LSB", Page0, 0x0E, false},
	RegMagDataXMSB:   {"MAG_DATA_X_MSB", Page0, 0x0F, false},
	RegMagDataYLSB:   {"MAG_DATA_Y_LSB", Page0, 0x10, false},
	RegMagDataYMSB:   {"MAG_DATA_Y_MSB", Page0, 0x11, false},
	RegMagDataZLSB:   {"MAG_DATA_Z_LSB", Page0, 0x12, false},
	RegMagDataZMSB:   {"MAG_DATA_Z_MSB", Page0, 0x13, false},
	RegGyrDataXLSB:   {"GYR_DATA_X_LSB", Page0, 0x14, false},
	RegGyrDataXMSB:   {"GYR_DATA_X_MSB", Page0, 0x15, false},
	RegGyrDataYLSB:   {"GYR_DATA_Y_LSB", Page0, 0x16, false},
	RegGyrDataYMSB:   {"GYR_DATA_Y_MSB", Page0, 0x17, false},
	RegGyrDataZLSB:   {"GYR_DATA_Z_LSB", Page0, 0x18, false},
	RegGyrDataZMSB:   {"GYR_DATA_Z_MSB", Page0, 0x19, false},
	RegEulHeadingLSB: {"EUL_HEADING_LSB", Page0, 0x1A, false},
	RegEulHeadingMSB: {"EUL_HEADING_MSB", Page0, 0x1B, false},
	RegEulRollLSB:    {"EUL_ROLL_LSB", Page0, 0x1C, false},
	RegEulRollMSB:    {"EUL_ROLL_MSB", Page0, 0x1D, false},
	RegEulPitchLSB:   {"EUL_PITCH_LSB", Page0, 0x1E, false},
	RegEulPitchMSB:   {"EUL_PITCH_MSB", Page0, 0x1F, false},
	RegQuaDataWLSB:   {"QUA_DATA_W_LSB", Page0, 0x20, false},
	RegQuaDataWMSB:   {"QUA_DATA_W_MSB", Page0, 0x21, false},
	RegQuaDataXLSB:   {"QUA_DATA_X_LSB", Page0, 0x22, false},
	RegQuaDataXMSB:   {"QUA_DATA_X_MSB", Page0, 0x23, false},
	RegQuaDataYLSB:   {"QUA_DATA_Y_LSB", Page0, 0x24, false},
	RegQuaDataYMSB:   {"QUA_DATA_Y_MSB", Page0, 0x25, false},
	RegQuaDataZLSB:   {"QUA_DATA_Z_LSB", Page0, 0x26, false},
	RegQuaDataZMSB:   {"QUA_DATA_Z_MSB", Page0, 0x27, false},
	RegLiaDataXLSB:   {"LIA_DATA_X_LSB", Page0, 0x28, false},
	RegLiaDataXMSB:   {"LIA_DATA_X_MSB", Page0, 0x29, false},
	RegLiaDataYLSB:   {"LIA_DATA_Y_LSB", Page0, 0x2A, false},
	RegLiaDataYMSB:   {"LIA_DATA_Y_MSB", Page0, 0x2B, false},
	RegLiaDataZLSB:   {"LIA_DATA_Z_LSB", Page0, 0x2C, false},
	RegLiaDataZMSB:   {"LIA_DATA_Z_MSB", Page0, 0x2D, false},
	RegGrvDataXLSB:   {"GRV_DATA_X_LSB", Page0, 0x2E, false},
	RegGrvDataXMSB:   {"GRV_DATA_X_MSB", Page0, 0x2F, false},
	RegGrvDataYLSB:   {"GRV_DATA_Y_LSB", Page0, 0x30, false},
	RegGrvDataYMSB:   {"GRV_DATA_Y_MSB", Page0, 0x31, false},
	RegGrvDataZLSB:   {"GRV_DATA_Z_LSB", Page0, 0x32, false},
	RegGrvDataZMSB:   {"GRV_DATA_Z_MSB", Page0, 0x33, false},
	RegTemp:          {"TEMP", Page0, 0x34, false},

	RegCalibStat:     {"CALIB_STAT", Page0, 0x35, false},
	RegStResult:      {"ST_RESULT", Page0, 0x36, false},
	RegIntSta:        {"INT_STA", Page0, 0x37, false},
	RegSysClkStatus:  {"SYS_CLK_STATUS", Page0, 0x38, false},
	RegSysStatus:     {"SYS_STATUS", Page0, 0x39, false},
	RegSysErr:        {"SYS_ERR", Page0, 0x3A, false},
	RegUnitSel:       {"UNIT_SEL", Page0, 0x3B, false},
	RegOprMode:       {"OPR_MODE", Page0, 0x3D, true},
	RegPwrMode:       {"PWR_MODE", Page0, 0x3E, true},
	RegSysTrigger:    {"SYS_TRIGGER", Page0, 0x3F, true},
	RegTempSource:    {"TEMP_SOURCE", Page0, 0x40, false},
	RegAxisMapConfig: {"AXIS_MAP_CONFIG", Page0, 0x41, false},
	RegAxisMapSign:   {"AXIS_MAP_SIGN", Page0, 0x42, false},

	RegSicMatrixLSB0: {"SIC_MATRIX_LSB0", Page0, 0x43, false},
	RegSicMatrixMSB0: {"SIC_MATRIX_MSB0", Page0, 0x44, false},
	RegSicMatrixLSB1: {"SIC_MATRIX_LSB1", Page0, 0x45, false},
	RegSicMatrixMSB1: {"SIC_MATRIX_MSB1", Page0, 0x46, false},
	RegSicMatrixLSB2: {"SIC_MATRIX_LSB2", Page0, 0x47, false},
	RegSicMatrixMSB2: {"SIC_MATRIX_MSB2", Page0, 0x48, false},
	RegSicMatrixLSB3: {"SIC_MATRIX_LSB3", Page0, 0x49, false},
	RegSicMatrixMSB3: {"SIC_MATRIX_MSB3", Page0, 0x4A, false},
	RegSicMatrixLSB4: {"SIC_MATRIX_LSB4", Page0, 0x4B, false},
	RegSicMatrixMSB4: {"SIC_MATRIX_MSB4", Page0, 0x4C, false},
	RegSicMatrixLSB5: {"SIC_MATRIX_LSB5", Page0, 0x4D, false},
	RegSicMatrixMSB5: {"SIC_MATRIX_MSB5", Page0, 0x4E, false},
	RegSicMatrixLSB6: {"SIC_MATRIX_LSB6", Page0, 0x4F, false},
	RegSicMatrixMSB6: {"SIC_MATRIX_MSB6", Page0, 0x50, false},
	RegSicMatrixLSB7: {"SIC_MATRIX_LSB7", Page0, 0x51, false},
	RegSicMatrixMSB7: {"SIC_MATRIX_MSB7", Page0, 0x52, false},
	RegSicMatrixLSB8: {"SIC_MATRIX_LSB8", Page0, 0x53, false},
	RegSicMatrixMSB8: {"SIC_MATRIX_MSB8", Page0, 0x54, false},

	RegAccOffsetXLSB: {"ACC_OFFSET_X_LSB", Page0, 0x55, false},
	RegAccOffsetXMSB: {"ACC_OFFSET_X_MSB", Page0, 0x56, false},
	RegAccOffsetYLSB: {"ACC_OFFSET_Y_LSB", Page0, 0x57, false},
	RegAccOffsetYMSB: {"ACC_OFFSET_Y_MSB", Page0, 0x58, false},
	RegAccOffsetZLSB: {"ACC_OFFSET_Z_LSB", Page0, 0x59, false},
	RegAccOffsetZMSB: {"ACC_OFFSET_Z_MSB", Page0, 0x5A, false},
	RegMagOffsetXLSB: {"MAG_OFFSET_X_LSB", Page0, 0x5B, false},
	RegMagOffsetXMSB: {"MAG_OFFSET_X_MSB", Page0, 0x5C, false},
	RegMagOffsetYLSB: {"MAG_OFFSET_Y_LSB", Page0, 0x5D, false},
	RegMagOffsetYMSB: {"MAG_OFFSET_Y_MSB", Page0, 0x5E, false},
	RegMagOffsetZLSB: {"MAG_OFFSET_Z_LSB", Page0, 0x5F, false},
	RegMagOffsetZMSB: {"MAG_OFFSET_Z_MSB", Page0, 0x60, false},
	RegGyrOffsetXLSB: {"GYR_OFFSET_X_LSB", Page0, 0x61, false},
	RegGyrOffsetXMSB: {"GYR_OFFSET_X_MSB", Page0, 0x62, false},
	RegGyrOffsetYLSB: {"GYR_OFFSET_Y_LSB", Page0, 0x63, false},
	RegGyrOffsetYMSB: {"GYR_OFFSET_Y_MSB", Page0, 0x64, false},
	RegGyrOffsetZLSB: {"GYR_OFFSET_Z_LSB", Page0, 0x65, false},
	RegGyrOffsetZMSB: {"GYR_OFFSET_Z_MSB", Page0, 0x66, false},
	RegAccRadiusLSB:  {"ACC_RADIUS_LSB", Page0, 0x67, false},
	RegAccRadiusMSB:  {"ACC_RADIUS_MSB", Page0, 0x68, false},
	RegMagRadiusLSB:  {"MAG_RADIUS_LSB", Page0, 0x69, false},
	RegMagRadiusMSB:  {"MAG_RADIUS_MSB", Page0, 0x6A, false},

	RegAccConfig:      {"ACC_CONFIG", Page1, 0x08, false},
	RegMagConfig:      {"MAG_CONFIG", Page1, 0x09, false},
	RegGyrConfig0:     {"GYR_CONFIG_0", Page1, 0x0A, false},
	RegGyrConfig1:     {"GYR_CONFIG_1", Page1, 0x0B, false},
	RegAccSleepConfig: {"ACC_SLEEP_CONFIG", Page1, 0x0C, false},
	RegGyrSleepConfig: {"GYR_SLEEP_CONFIG", Page1, 0x0D, false},
	RegIntMsk:         {"INT_MSK", Page1, 0x0F, true},
	RegIntEn:          {"INT_EN", Page1, 0x10, true},
	RegAccAmThres:     {"ACC_AM_THRES", Page1, 0x11, false},
	RegAccIntSettings: {"ACC_INT_SETTINGS", Page1, 0x12, false},
	RegAccHgDuration:  {"ACC_HG_DURATION", Page1, 0x13, false},
	RegAccHgThres:     {"ACC_HG_THRES", Page1, 0x14, false},
	RegAccNmThres:     {"ACC_NM_THRES", Page1, 0x15, false},
	RegAccNmSet:       {"ACC_NM_SET", Page1, 0x16, false},
	RegGyrIntSetting:  {"GYR_INT_SETTING", Page1, 0x17, false},
	RegGyrHrXSet:      {"GYR_HR_X_SET", Page1, 0x18, false},
	RegGyrDurX:        {"GYR_DUR_X", Page1, 0x19, false},
	RegGyrHrYSet:      {"GYR_HR_Y_SET", Page1, 0x1A, false},
	RegGyrDurY:        {"GYR_DUR_Y", Page1, 0x1B, false},
	RegGyrHrZSet:      {"GYR_HR_Z_SET", Page1, 0x1C, false},
	RegGyrDurZ:        {"GYR_DUR_Z", Page1, 0x1D, false},
	RegGyrAmThres:     {"GYR_AM_THRES", Page1, 0x1E, false},
	RegGyrAmSet:       {"GYR_AM_SET", Page1, 0x1F, false},
	RegUniqueID:       {"UNIQUE_ID", Page1, 0x50, false},
}

// Bits of registers the driver decodes.
const (
	expectedChipID = 0xA0

	sysTriggerResetBit  = 1 << 5
	sysTriggerExtClkBit = 1 << 7

	calibrationProfileLength = 22
	uniqueIDLength           = 16
)

func (r Register) info() registerInfo {
	if r >= numRegisters {
		return registerInfo{name: fmt.Sprintf("REG(%d)", uint8(r)), page: pageUnknown}
	}
	return registerMap[r]
}

func (r Register) String() string {
	return r.info().name
}

// Page returns the page the register lives on. PAGE_ID reports Page0 since it is reachable from
// either page.
func (r Register) Page() Page {
	if p := r.info().page; p != pageAny {
		return p
	}
	return Page0
}

// Offset returns the register's address within its page.
func (r Register) Offset() byte {
	return r.info().offset
}

func (r Register) valid() bool {
	return r < numRegisters
}
