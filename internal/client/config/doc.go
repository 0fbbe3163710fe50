// Package config resolves the terminal client's settings.
//
// Values are layered: built-in defaults first, then a JSON file named by
// -c or -config, then flags. The last layer that sets a value wins.
//
//	-a host:port   server endpoint (default 127.0.0.1:50051)
//	-i interval    online probe period, "5" for seconds or "1m30s"
//
// A JSON file uses the keys "server_endpoint_addr" and
// "online_check_interval"; the interval is a duration string.
package config
