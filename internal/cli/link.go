package cli

import (
	"context"
	"fmt"
	"log"
)

// Link walks the user through vendor account linking: it prints the
// authorization URL to open in a browser, reads the code from the redirect
// back and completes the exchange/registration chain.
func (a *App) Link(ctx context.Context) error {
	authURL, err := a.vendor.AuthorizationURL()
	if err != nil {
		log.Println(err.Error())
		return err
	}

	fmt.Fprintln(a.out, "Open this URL in a browser and approve access:")
	fmt.Fprintln(a.out, "  "+authURL)

	code, err := getSimpleText(a.reader, "Paste the authorization code", a.out)
	if err != nil {
		return err
	}

	device, err := a.devices.Link(ctx, code)
	if err != nil {
		log.Printf("Linking unsuccessful: %s", err.Error())
		return err
	}

	fmt.Fprintf(a.out, "Linked %s account %s\n", device.DeviceType, device.DeviceID)
	return nil
}

// Devices lists the user's linked devices.
func (a *App) Devices(ctx context.Context) error {
	devices, err := a.devices.List(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(devices) == 0 {
		fmt.Fprintln(a.out, "No linked devices")
		return nil
	}
	for _, d := range devices {
		sync := "never"
		if d.LastSync != nil {
			sync = d.LastSync.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(a.out, "%s  %s  %s  last sync: %s\n", d.ID, d.DeviceType, d.DeviceID, sync)
	}
	return nil
}
