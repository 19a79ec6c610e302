// Package service implements workflow management and credit application
// processing on top of the ports, independent of any transport.
package service
