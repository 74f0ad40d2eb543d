package discovery

const platformPattern = "/dev/cu.usbserial*"
