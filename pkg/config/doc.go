// Package config loads the board description for the regulator engine.
//
// A board file names the SoC model whose rail table is used as the base and
// narrows it: per-rail voltage bounds and current ceilings, extra current
// consumers hanging off the budget tree, the USB input limits, the voltage
// poll ladder, and where the power block lives.
//
//	model: imx28
//	base_address: 0x80044000
//	dcdc_pll_khz: 24000
//	rails:
//	  overall_current:
//	    max_ua: 1500000
//	  vddd:
//	    min_uv: 1000000
//	    max_uv: 1550000
//	    max_ua: 400000
//	consumers:
//	  - name: lcd
//	    max_ua: 200000
//	usb:
//	  host_ua: 500000
//	  external_ua: 1500000
//	timing:
//	  slow_timeout: 20ms
//
// Unset fields keep the model's values. Durations are Go duration strings.
package config
