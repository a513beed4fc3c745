// Package main is the datamodel command line tool.
package main

func main() {
	Execute()
}
