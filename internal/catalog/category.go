package catalog

import (
	"sort"
	"strings"
)

// Category is the device type label the catalog uses for grouping.
type Category string

// Uncategorized is the bucket for records whose type is missing or unrecognized.
const Uncategorized Category = "Uncategorized"

// Known device categories.
const (
	CategoryiPhone         Category = "iPhone"
	CategoryiPad           Category = "iPad"
	CategoryiPadAir        Category = "iPad Air"
	CategoryiPadPro        Category = "iPad Pro"
	CategoryiPadMini       Category = "iPad mini"
	CategoryiPodTouch      Category = "iPod touch"
	CategoryiPod           Category = "iPod"
	CategoryiPodClassic    Category = "iPod classic"
	CategoryiPodNano       Category = "iPod nano"
	CategoryiPodShuffle    Category = "iPod shuffle"
	CategoryiPodMini       Category = "iPod mini"
	CategoryAppleWatch     Category = "Apple Watch"
	CategoryAppleTV        Category = "Apple TV"
	CategoryHomePod        Category = "HomePod"
	CategoryHomePodMini    Category = "HomePod mini"
	CategoryAirPods        Category = "AirPods"
	CategoryAirPodsPro     Category = "AirPods Pro"
	CategoryAirPodsMax     Category = "AirPods Max"
	CategoryHeadset        Category = "Headset"
	CategoryAirTag         Category = "AirTag"
	CategoryAirPort        Category = "AirPort"
	CategoryAirPortExpress Category = "AirPort Express"
	CategoryAirPortExtreme Category = "AirPort Extreme"
	CategoryTimeCapsule    Category = "AirPort Time Capsule"
	CategoryiMac           Category = "iMac"
	CategoryiMacPro        Category = "iMac Pro"
	CategoryMacMini        Category = "Mac mini"
	CategoryMacPro         Category = "Mac Pro"
	CategoryMacStudio      Category = "Mac Studio"
	CategoryMacBook        Category = "MacBook"
	CategoryMacBookAir     Category = "MacBook Air"
	CategoryMacBookPro     Category = "MacBook Pro"
	CategoryEMac           Category = "eMac"
	CategoryiBook          Category = "iBook"
	CategoryPowerBook      Category = "PowerBook"
	CategoryPowerMac       Category = "Power Macintosh"
	CategoryXserve         Category = "Xserve"
	CategoryDisplay        Category = "Display"
	CategoryStudioDisplay  Category = "Studio Display"
	CategoryProDisplayXDR  Category = "Pro Display XDR"
	CategoryKeyboard       Category = "Keyboard"
	CategoryMouse          Category = "Mouse"
	CategoryTrackpad       Category = "Trackpad"
	CategoryApplePencil    Category = "Apple Pencil"
	CategoryRemote         Category = "Remote"
	CategoryBeats          Category = "Beats"
	CategoryBatteryCase    Category = "Battery Case"
	CategoryCable          Category = "Cable"
	CategoryAdapter        Category = "Adapter"
	CategoryAccessory      Category = "Accessory"
	CategoryBridge         Category = "iBridge"
	CategorySoftware       Category = "Software"
	CategorySimulator      Category = "Simulator"
)

var knownCategories = []Category{
	CategoryiPhone, CategoryiPad, CategoryiPadAir, CategoryiPadPro, CategoryiPadMini,
	CategoryiPodTouch, CategoryiPod, CategoryiPodClassic, CategoryiPodNano, CategoryiPodShuffle,
	CategoryiPodMini, CategoryAppleWatch, CategoryAppleTV, CategoryHomePod, CategoryHomePodMini,
	CategoryAirPods, CategoryAirPodsPro, CategoryAirPodsMax, CategoryHeadset, CategoryAirTag,
	CategoryAirPort, CategoryAirPortExpress, CategoryAirPortExtreme, CategoryTimeCapsule,
	CategoryiMac, CategoryiMacPro, CategoryMacMini, CategoryMacPro, CategoryMacStudio,
	CategoryMacBook, CategoryMacBookAir, CategoryMacBookPro, CategoryEMac, CategoryiBook,
	CategoryPowerBook, CategoryPowerMac, CategoryXserve, CategoryDisplay, CategoryStudioDisplay,
	CategoryProDisplayXDR, CategoryKeyboard, CategoryMouse, CategoryTrackpad, CategoryApplePencil,
	CategoryRemote, CategoryBeats, CategoryBatteryCase, CategoryCable, CategoryAdapter,
	CategoryAccessory, CategoryBridge, CategorySoftware, CategorySimulator,
}

// commonCategories is the short list offered when recording owned hardware.
var commonCategories = []Category{
	CategoryiPhone, CategoryiPad, CategoryiPadPro, CategoryiPadAir, CategoryAppleWatch,
	CategoryAppleTV, CategoryAirPods, CategoryHeadset, CategoryMacBook, CategoryMacBookAir,
	CategoryMacBookPro, CategoryMacPro, CategoryMacMini, CategoryMacStudio,
}

var categoryLookup = func() map[string]Category {
	m := make(map[string]Category, len(knownCategories))
	for _, c := range knownCategories {
		m[strings.ToLower(string(c))] = c
	}
	return m
}()

// ParseCategory maps a raw type label onto a known category. Unknown or empty
// labels map to Uncategorized; this is not an error.
func ParseCategory(raw string) Category {
	if c, ok := categoryLookup[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return Uncategorized
}

// Known reports whether c is one of the enumerated categories.
func (c Category) Known() bool {
	_, ok := categoryLookup[strings.ToLower(string(c))]
	return ok
}

// Categories returns every known category sorted by name.
func Categories() []Category {
	out := append([]Category(nil), knownCategories...)
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(string(out[i])) < strings.ToLower(string(out[j])) })
	return out
}

// CommonCategories returns the everyday categories in display order.
func CommonCategories() []Category {
	return append([]Category(nil), commonCategories...)
}
