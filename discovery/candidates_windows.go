package discovery

const platformPattern = "COM*"
