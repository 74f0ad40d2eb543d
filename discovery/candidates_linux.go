package discovery

const platformPattern = "/dev/ttyUSB*"
