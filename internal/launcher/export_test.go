package launcher

const MaxRequestBody = maxRequestBody
