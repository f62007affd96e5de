// Package config resolves every environment input of abspool once, at start-up.
//
// [Load] reads the ABS endpoint, poll timeout, credentials for the recorded
// targets, CI detection variables and the requester identity into a single
// [Config] value that is then passed explicitly to the request builder and
// the response translator. [FogFile] supplies the ABS auth token.
package config
