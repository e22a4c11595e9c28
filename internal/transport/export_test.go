package transport

const MaxBody = maxBody
