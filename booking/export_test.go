package booking

var FallbackID = fallbackID
