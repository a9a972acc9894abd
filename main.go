package main

import "github.com/sachinsudani/whatsapp-multi-tenant-sub001/cmd"

func main() {
	cmd.Execute()
}
